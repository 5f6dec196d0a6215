package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lysyi3m/rss-toot/app/cfg"
	"github.com/lysyi3m/rss-toot/app/config"
	"github.com/lysyi3m/rss-toot/app/database"
	"github.com/lysyi3m/rss-toot/app/feed"
	"github.com/lysyi3m/rss-toot/app/mastodon"
	"github.com/lysyi3m/rss-toot/app/setup"
	"github.com/lysyi3m/rss-toot/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Starting rss-toot", "version", appCfg.Version)
		slog.Debug("Using config file", "path", appCfg.ConfigPath)
		slog.Debug("Using state database", "path", appCfg.StatePath)
	}

	if appCfg.DedupeField != "" {
		if _, ok := (feed.Entry{}).FieldValue(appCfg.DedupeField); !ok {
			slog.Error("Unknown dedupe field", "field", appCfg.DedupeField)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.Timeout) * time.Second,
	}

	configPresent, err := config.Exists(appCfg.ConfigPath)
	if err != nil {
		slog.Error("Failed to check config file", "error", err)
		os.Exit(1)
	}
	firstRun := !configPresent

	var conf *config.Config
	includeOld := true
	if firstRun {
		conf, includeOld, err = setup.Run(ctx, appCfg.ConfigPath, httpClient)
		if err != nil {
			slog.Error("Setup failed", "error", err)
			os.Exit(1)
		}
	} else {
		conf, err = config.Load(appCfg.ConfigPath)
		if err != nil {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
	}

	db, err := database.NewConnection(appCfg.StatePath)
	if err != nil {
		slog.Error("Failed to open state database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Debug("State database ready", "version", version, "dirty", dirty)

	watermarkRepo := database.NewWatermarkRepository(db)
	ledgerRepo := database.NewLedgerRepository(db)

	// The user declined posting pre-existing entries: mark every feed as
	// caught up to now.
	if firstRun && !includeOld {
		now := time.Now().UTC()
		for _, feedConfig := range conf.Feeds {
			if err := watermarkRepo.Advance(feedConfig.URL, now); err != nil {
				slog.Error("Failed to initialize watermark", "feed", feedConfig.URL, "error", err)
				os.Exit(1)
			}
		}
	}

	client := mastodon.NewClient(conf.URL, conf.AccessToken, httpClient, appCfg.UserAgent)
	fetcher := feed.NewFetcher(httpClient, feed.NewParser(), feed.NewFilterer(), appCfg.UserAgent)
	renderer := feed.NewRenderer()

	opts := tasks.Options{
		DryRun:      appCfg.DryRun,
		Verbose:     appCfg.Verbose,
		Delay:       appCfg.Delay,
		DedupeField: appCfg.DedupeField,
	}

	runner := tasks.NewRunner()
	for _, feedConfig := range conf.Feeds {
		runner.Add(tasks.NewPublishFeedTask(feedConfig, fetcher, renderer, client,
			watermarkRepo, ledgerRepo, opts))
	}

	if err := runner.Run(ctx); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}
