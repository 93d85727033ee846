// Package config loads the pipeline configuration: where to extract from,
// where the exchange rates live, and where the table is loaded.
package config

import (
	"time"

	"banketl/internal/domain"
)

// Config is the root configuration for one pipeline run.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Rates   RatesConfig   `yaml:"rates"`
	Output  OutputConfig  `yaml:"output"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`

	// RunTimeout bounds the whole run; 0 disables the bound.
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// SourceConfig selects and configures the extraction source.
type SourceConfig struct {
	Type    string        `yaml:"type"` // html_table | csv_file
	URL     string        `yaml:"url"`
	Path    string        `yaml:"path"` // local snapshot / csv file
	Timeout time.Duration `yaml:"timeout"`
	Columns []string      `yaml:"columns"`
}

// RatesConfig points at the exchange-rate file.
type RatesConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig holds the CSV sink settings.
type OutputConfig struct {
	CSVPath string `yaml:"csv_path"`
}

// StoreConfig holds the table-store sink settings.
type StoreConfig struct {
	Connection domain.DatabaseConnection `yaml:",inline"`
	Table      string                    `yaml:"table"`
	Query      string                    `yaml:"query"` // empty = read back the whole table
}

// LoggingConfig controls operational logging and the progress log.
type LoggingConfig struct {
	Level        string `yaml:"level"`  // debug | info | warn | error
	Format       string `yaml:"format"` // text | json
	ProgressFile string `yaml:"progress_file"`
}

// HistoryConfig points at the local run-history database.
type HistoryConfig struct {
	Path string `yaml:"path"` // empty disables run history
}
