// Package config handles modconv configuration loading and management.
package config

import "github.com/Faultbox/modconv/pkg/formats"

// Config holds all converter settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Convert ConvertConfig `yaml:"convert"`
	// Params holds default codec parameters per format name, e.g.
	// params.obj.flipZ or params.old.charset.
	Params map[string]map[string]string `yaml:"params"`
}

// ConvertConfig holds conversion defaults used when flags don't override them.
type ConvertConfig struct {
	InputFormat  string `yaml:"input_format"`
	OutputFormat string `yaml:"output_format"`
	InputDir     string `yaml:"input_dir"`  // Prepended to input names
	OutputDir    string `yaml:"output_dir"` // Prepended to output names
	Workers      int    `yaml:"workers"`    // Concurrent batch entries
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Convert: ConvertConfig{
			InputFormat:  "default",
			OutputFormat: "default",
			Workers:      1,
		},
		Params: map[string]map[string]string{},
	}
}

// CodecParams returns the configured parameters of format. A non-empty dir
// is added as the "directory" parameter unless the file already sets one.
// The result is a fresh map.
func (c *Config) CodecParams(format, dir string) formats.Params {
	params := formats.Params(c.Params[format]).Merge(nil)
	if dir != "" && !params.Has("directory") {
		params["directory"] = dir
	}
	return params
}
