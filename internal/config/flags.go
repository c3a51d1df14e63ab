package config

import "flag"

// Flags holds the command-line overrides bound by BindFlags.
type Flags struct {
	Config       string
	Debug        bool
	LogFile      string
	Workers      int
	InputFormat  string
	OutputFormat string
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file as well")
	fs.IntVar(&f.Workers, "workers", 0, "Batch entries converted concurrently")
	fs.StringVar(&f.InputFormat, "i", "", "Input format (see 'modconv formats')")
	fs.StringVar(&f.OutputFormat, "o", "", "Output format (see 'modconv formats')")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Workers > 0 {
		cfg.Convert.Workers = f.Workers
	}
	if f.InputFormat != "" {
		cfg.Convert.InputFormat = f.InputFormat
	}
	if f.OutputFormat != "" {
		cfg.Convert.OutputFormat = f.OutputFormat
	}
}
