package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultTemplate = "{title} {url}"

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &config, nil
}

// Save writes the configuration back to disk. Used by the first-run setup.
func Save(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists reports whether a configuration file is present at path. Stat
// failures other than absence are returned, not folded into "missing".
func Exists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}
	return true, nil
}

func setDefaults(config *Config) {
	for i := range config.Feeds {
		if config.Feeds[i].Template == "" {
			config.Feeds[i].Template = DefaultTemplate
		}
	}
}

func validate(config *Config) error {
	if config.URL == "" {
		return fmt.Errorf("instance URL is required")
	}
	if config.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}
	if len(config.Feeds) == 0 {
		return fmt.Errorf("at least one feed is required")
	}

	for i, feed := range config.Feeds {
		if feed.URL == "" {
			return fmt.Errorf("feed at index %d: URL is required", i)
		}
	}

	return nil
}
