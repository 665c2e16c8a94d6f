// Package config holds the settings of the asset import pipeline: loader defaults, the streaming worker pool and logging.
package config

import "time"

// Config holds all import pipeline settings.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Stream  StreamConfig  `yaml:"stream"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoaderConfig holds the defaults applied to every renderable the loader creates.
type LoaderConfig struct {
	CastShadows    bool `yaml:"cast_shadows"`
	ReceiveShadows bool `yaml:"receive_shadows"`
}

// StreamConfig sizes the worker pool that resolves deferred buffer and texture bindings.
type StreamConfig struct {
	Workers     int           `yaml:"workers"`
	QueueSize   int           `yaml:"queue_size"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// BaseDir is the directory external buffer and image URIs are resolved against.
	BaseDir string `yaml:"base_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			CastShadows:    true,
			ReceiveShadows: true,
		},
		Stream: StreamConfig{
			Workers:     4,
			QueueSize:   256,
			IdleTimeout: time.Second,
			BaseDir:     ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Stream.Workers <= 0 {
		return &InvalidValueError{Field: "stream.workers", Reason: "must be positive"}
	}
	if c.Stream.QueueSize <= 0 {
		return &InvalidValueError{Field: "stream.queue_size", Reason: "must be positive"}
	}
	if c.Stream.IdleTimeout < 0 {
		return &InvalidValueError{Field: "stream.idle_timeout", Reason: "must not be negative"}
	}
	return nil
}

// InvalidValueError is returned by Validate for an unusable setting.
type InvalidValueError struct {
	Field  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return "config: " + e.Field + " " + e.Reason
}
