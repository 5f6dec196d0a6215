package config

// Config is the on-disk configuration: one posting account plus the
// feeds it publishes.
type Config struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AccessToken  string `yaml:"access_token"`
	Feeds        []Feed `yaml:"feeds"`
}

// Feed configures a single watched feed. Template placeholders are
// named after normalized entry fields, e.g. "{title} {url}".
type Feed struct {
	URL           string `yaml:"url"`
	Template      string `yaml:"template"`
	IncludeImages bool   `yaml:"include_images"`
}
