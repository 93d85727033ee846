package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banketl/internal/config"
	"banketl/internal/domain"
	"banketl/internal/etl"
	_ "banketl/internal/etl/sources"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, &config.Config{}, cfg)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("BANKS_DB_PASSWORD", "s3cret")
	t.Setenv("BANKS_DB_HOST", "pg.internal")

	path := writeConfig(t, `
source:
  type: html_table
  path: ./snapshot.html
  timeout: 3s
store:
  driver: postgres
  host: ${BANKS_DB_HOST}
  port: 5433
  database: banks
  username: etl
  password: ${BANKS_DB_PASSWORD}
  table: Largest_banks
run_timeout: 1m
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./snapshot.html", cfg.Source.Path)
	assert.Equal(t, 3*time.Second, cfg.Source.Timeout)
	assert.Equal(t, domain.DatabaseConnection{
		Driver:   domain.DatabaseDriverPostgres,
		Host:     "pg.internal",
		Port:     5433,
		Database: "banks",
		Username: "etl",
		Password: "s3cret",
	}, cfg.Store.Connection)
	assert.Equal(t, "Largest_banks", cfg.Store.Table)
	assert.Equal(t, time.Minute, cfg.RunTimeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = config.Load(writeConfig(t, "source: [not, a, map"))
	assert.ErrorContains(t, err, "parse config yaml")
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "html_table", cfg.Source.Type)
	assert.Equal(t, config.DefaultSourceURL, cfg.Source.URL)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "exchange_rate.csv", cfg.Rates.Path)
	assert.Equal(t, "./Largest_banks_data.csv", cfg.Output.CSVPath)
	assert.Equal(t, domain.DatabaseDriverSQLite, cfg.Store.Connection.Driver)
	assert.Equal(t, "Banks.db", cfg.Store.Connection.Host)
	assert.Equal(t, "Largest_banks", cfg.Store.Table)
	assert.Equal(t, "code_log.txt", cfg.Logging.ProgressFile)
	assert.Equal(t, `SELECT * FROM "Largest_banks"`, cfg.Query())
	assert.Equal(t, etl.DefaultColumns, cfg.Columns())
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithDefaults_KeepsExplicitValues(t *testing.T) {
	cfg, err := config.LoadWithDefaults(writeConfig(t, `
source:
  type: csv_file
  path: banks.csv
store:
  host: out/other.db
  query: SELECT Name FROM Largest_banks
`))
	require.NoError(t, err)

	assert.Equal(t, "csv_file", cfg.Source.Type)
	assert.Empty(t, cfg.Source.URL, "url default only applies to html_table")
	assert.Equal(t, "out/other.db", cfg.Store.Connection.Host)
	assert.Equal(t, "SELECT Name FROM Largest_banks", cfg.Query())
	assert.Equal(t, etl.SourceConfig{"timeout": 10 * time.Second, "path": "banks.csv"}, cfg.SourceConfig())
}

func TestLoadAndValidate_Sample(t *testing.T) {
	cfg, err := config.LoadAndValidate("../../configs/banks.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Largest_banks", cfg.Store.Table)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"unknown source", func(c *config.Config) { c.Source.Type = "ftp" }, "source.type"},
		{"html without url or path", func(c *config.Config) { c.Source.URL = "" }, "source.url or source.path"},
		{"csv without path", func(c *config.Config) { c.Source.Type = "csv_file" }, "source.path"},
		{"negative timeout", func(c *config.Config) { c.Source.Timeout = -time.Second }, "source.timeout"},
		{"bad columns", func(c *config.Config) { c.Source.Columns = []string{"Bank", "Cap"} }, "source.columns"},
		{"extra html columns", func(c *config.Config) {
			c.Source.Columns = []string{"Name", "MC_USD_Billion", "Rank"}
		}, "html_table yields only"},
		{"no rates", func(c *config.Config) { c.Rates.Path = "" }, "rates.path"},
		{"no csv", func(c *config.Config) { c.Output.CSVPath = "" }, "output.csv_path"},
		{"bad driver", func(c *config.Config) { c.Store.Connection.Driver = "oracle" }, "store.driver"},
		{"no host", func(c *config.Config) { c.Store.Connection.Host = "" }, "store.host"},
		{"unsafe table", func(c *config.Config) { c.Store.Table = "banks; DROP TABLE x" }, "store.table"},
		{"no progress file", func(c *config.Config) { c.Logging.ProgressFile = "" }, "logging.progress_file"},
		{"negative run timeout", func(c *config.Config) { c.RunTimeout = -1 }, "run_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestQuery_PerDriver(t *testing.T) {
	tests := []struct {
		driver domain.DatabaseDriver
		want   string
	}{
		{domain.DatabaseDriverPostgres, `SELECT * FROM "Largest_banks"`},
		{domain.DatabaseDriverMySQL, "SELECT * FROM `Largest_banks`"},
		{domain.DatabaseDriverMongoDB, `{"collection": "Largest_banks"}`},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Store.Connection.Driver = tt.driver
		assert.Equal(t, tt.want, cfg.Query(), string(tt.driver))
	}
}
