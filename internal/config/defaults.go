package config

import (
	"time"

	"banketl/internal/domain"
)

// Default values for optional configuration fields.
const (
	DefaultSourceType   = "html_table"
	DefaultSourceURL    = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"
	DefaultTimeout      = 10 * time.Second
	DefaultRatesPath    = "exchange_rate.csv"
	DefaultCSVPath      = "./Largest_banks_data.csv"
	DefaultDBPath       = "Banks.db"
	DefaultTable        = "Largest_banks"
	DefaultProgressFile = "code_log.txt"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultRunTimeout   = 5 * time.Minute
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// Source defaults
	if c.Source.Type == "" {
		c.Source.Type = DefaultSourceType
	}
	if c.Source.Type == DefaultSourceType && c.Source.URL == "" && c.Source.Path == "" {
		c.Source.URL = DefaultSourceURL
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = DefaultTimeout
	}

	if c.Rates.Path == "" {
		c.Rates.Path = DefaultRatesPath
	}
	if c.Output.CSVPath == "" {
		c.Output.CSVPath = DefaultCSVPath
	}

	// Store defaults
	if c.Store.Connection.Driver == "" {
		c.Store.Connection.Driver = domain.DatabaseDriverSQLite
	}
	if c.Store.Connection.Driver == domain.DatabaseDriverSQLite && c.Store.Connection.Host == "" {
		c.Store.Connection.Host = DefaultDBPath
	}
	if c.Store.Table == "" {
		c.Store.Table = DefaultTable
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.ProgressFile == "" {
		c.Logging.ProgressFile = DefaultProgressFile
	}

	if c.RunTimeout == 0 {
		c.RunTimeout = DefaultRunTimeout
	}
}
