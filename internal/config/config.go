package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// DatabasePath points at the SQLite history file. Empty disables
	// persistence entirely.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	HistoryLimit    int  `mapstructure:"history_limit" yaml:"history_limit"`
	SnapshotRecent  int  `mapstructure:"snapshot_recent" yaml:"snapshot_recent"`
	ValidateOptions bool `mapstructure:"validate_options" yaml:"validate_options"`

	// MessageRateLimit caps inbound frames per connection per minute.
	// Zero disables the limiter.
	MessageRateLimit int `mapstructure:"message_rate_limit" yaml:"message_rate_limit"`

	// Scheduled SYSTEM emission intervals; zero disables an emission.
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval" yaml:"broadcast_interval"`
	UserInterval      time.Duration `mapstructure:"user_interval" yaml:"user_interval"`
	DeviceInterval    time.Duration `mapstructure:"device_interval" yaml:"device_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "hello-stomp-live.db",
		HistoryLimit:      200,
		SnapshotRecent:    10,
		ValidateOptions:   false,
		MessageRateLimit:  120,
		BroadcastInterval: 20 * time.Second,
		UserInterval:      25 * time.Second,
		DeviceInterval:    30 * time.Second,
	}
}
