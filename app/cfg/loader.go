package cfg

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// File locations
	ConfigPath string `long:"config" short:"c" env:"RSS_TOOT_CONFIG" description:"Configuration file to use (default: ~/.rss-toot.yml)"`
	StatePath  string `long:"state" short:"s" env:"RSS_TOOT_STATE" description:"State database to use (default: ~/.rss-toot.db)"`

	// Run behavior
	DryRun      bool   `long:"dry-run" short:"n" description:"Perform a trial run with no changes made: don't post, don't save state"`
	Verbose     bool   `long:"verbose" short:"v" description:"Be verbose"`
	Delay       bool   `long:"delay" short:"d" description:"Delay randomly from 10 to 30 seconds between each post"`
	DedupeField string `long:"dedupe" short:"p" value-name:"FIELD" description:"Skip entries whose FIELD was already posted (e.g. link, title)"`

	// HTTP configuration
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests (default: rss-toot/<version>)"`
	Timeout   int    `long:"timeout" env:"TIMEOUT" default:"30" description:"HTTP request timeout in seconds"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ConfigPath:  cmp.Or(raw.ConfigPath, defaultPath(".rss-toot.yml")),
		StatePath:   cmp.Or(raw.StatePath, defaultPath(".rss-toot.db")),
		DryRun:      raw.DryRun,
		Verbose:     raw.Verbose,
		Delay:       raw.Delay,
		DedupeField: raw.DedupeField,
		UserAgent:   cmp.Or(raw.UserAgent, defaultUserAgent()),
		Timeout:     raw.Timeout,
		Version:     GetVersion(),
	}

	return cfg, nil
}

func defaultUserAgent() string {
	return "rss-toot/" + GetVersion()
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, name)
}
