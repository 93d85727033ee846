package dbclient

import (
	"fmt"
	"os"
	"path/filepath"

	"banketl/internal/domain"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	quote:       quoteDouble,
	placeholder: questionMark,
	textType:    "TEXT",
	numberType:  "REAL",
	queryOnly: func(on bool) string {
		if on {
			return "PRAGMA query_only = ON"
		}
		return "PRAGMA query_only = OFF"
	},
}

// newSQLiteConnector opens (or creates) the file-backed store at conn.Host.
func newSQLiteConnector(conn *domain.DatabaseConnection) (*sqlConnector, error) {
	if conn.Host == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}
	if dir := filepath.Dir(conn.Host); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	c, err := newSQLConnector("sqlite", conn.Host+"?_pragma=busy_timeout(5000)", sqliteDialect)
	if err != nil {
		return nil, err
	}
	// SQLite only supports one writer; a single connection avoids SQLITE_BUSY
	c.db.SetMaxOpenConns(1)
	return c, nil
}
