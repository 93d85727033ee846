package config

import (
	"errors"
	"fmt"
	"regexp"

	"banketl/internal/etl"
)

// tableNamePattern keeps the table name safe to splice into the default query.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}

	if c.Rates.Path == "" {
		return errors.New("rates.path is required")
	}
	if c.Output.CSVPath == "" {
		return errors.New("output.csv_path is required")
	}

	if !c.Store.Connection.Driver.Valid() {
		return fmt.Errorf("store.driver %q is not supported", c.Store.Connection.Driver)
	}
	if c.Store.Connection.Host == "" {
		return errors.New("store.host is required")
	}
	if !tableNamePattern.MatchString(c.Store.Table) {
		return fmt.Errorf("store.table %q must be a plain identifier", c.Store.Table)
	}

	if c.Logging.ProgressFile == "" {
		return errors.New("logging.progress_file is required")
	}
	if c.RunTimeout < 0 {
		return errors.New("run_timeout must be >= 0")
	}
	return nil
}

func (c *Config) validateSource() error {
	if _, err := etl.GetSource(c.Source.Type); err != nil {
		return fmt.Errorf("source.type: %w", err)
	}
	switch c.Source.Type {
	case "html_table":
		if c.Source.URL == "" && c.Source.Path == "" {
			return errors.New("source.url or source.path is required")
		}
	case "csv_file":
		if c.Source.Path == "" {
			return errors.New("source.path is required")
		}
	}
	if c.Source.Timeout < 0 {
		return errors.New("source.timeout must be >= 0")
	}

	if cols := c.Source.Columns; len(cols) > 0 {
		if len(cols) < 2 || cols[0] != etl.ColumnName || cols[1] != etl.ColumnUSD {
			return fmt.Errorf("source.columns must start with %s, %s", etl.ColumnName, etl.ColumnUSD)
		}
		if c.Source.Type == "html_table" && len(cols) != 2 {
			return fmt.Errorf("source.columns: html_table yields only %s, %s", etl.ColumnName, etl.ColumnUSD)
		}
	}
	return nil
}

// SourceConfig converts the typed source settings into the map a
// registered source reads.
func (c *Config) SourceConfig() etl.SourceConfig {
	cfg := etl.SourceConfig{"timeout": c.Source.Timeout}
	if c.Source.URL != "" {
		cfg["url"] = c.Source.URL
	}
	if c.Source.Path != "" {
		cfg["path"] = c.Source.Path
	}
	return cfg
}

// Query returns the configured query or the default read-back query.
func (c *Config) Query() string {
	if c.Store.Query != "" {
		return c.Store.Query
	}
	return etl.DefaultQuery(c.Store.Connection.Driver, c.Store.Table)
}

// Columns returns the expected extraction columns.
func (c *Config) Columns() []string {
	if len(c.Source.Columns) > 0 {
		return c.Source.Columns
	}
	return etl.DefaultColumns
}
