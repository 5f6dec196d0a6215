package cfg

type Cfg struct {
	// File locations
	ConfigPath string
	StatePath  string

	// Run behavior
	DryRun      bool
	Verbose     bool
	Delay       bool
	DedupeField string

	// HTTP configuration
	UserAgent string
	Timeout   int

	// Application metadata
	Version string
}
