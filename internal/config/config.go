// Package config loads wallet settings from defaults, an optional TOML file,
// an optional .env file and the environment, in that order of precedence
// (later sources win). Command-line flags are applied by the caller on top.
package config

import "time"

// Config holds all wallet configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Transfer TransferConfig `toml:"transfer"`
}

// DatabaseConfig holds store settings.
type DatabaseConfig struct {
	// Path is the SQLite database file (default: wallet.db)
	Path string `toml:"path" env:"WALLET_DB" default:"wallet.db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `toml:"level" env:"WALLET_LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `toml:"format" env:"WALLET_LOG_FORMAT" default:"text"`
}

// TransferConfig holds import/export settings.
type TransferConfig struct {
	// Format is the default interchange format (default: csv)
	Format string `toml:"format" env:"WALLET_FORMAT" default:"csv"`

	// Timeout bounds how long the CLI waits for a task (default: 5m)
	Timeout time.Duration `toml:"timeout" env:"WALLET_TIMEOUT" default:"5m"`
}
