package dbclient

import (
	"context"
	"fmt"

	"banketl/internal/domain"
)

// Column types understood by every connector.
const (
	TypeText   = "text"
	TypeNumber = "number"
)

// Column describes one column of a table written to the store.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"` // TypeText | TypeNumber
}

// QueryPage holds the rows returned by a read query.
type QueryPage struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Connector abstracts interaction with the table store.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// ReplaceTable drops the named table (if present), recreates it with
	// columns and inserts rows. Returns the number of rows inserted.
	ReplaceTable(ctx context.Context, table string, columns []Column, rows [][]any) (int, error)

	// Query runs a read-only query and returns every resulting row.
	Query(ctx context.Context, query string) (*QueryPage, error)

	// Close releases the connection.
	Close() error
}

// NewConnector creates a Connector for the given database connection.
func NewConnector(conn *domain.DatabaseConnection) (Connector, error) {
	switch conn.Driver {
	case domain.DatabaseDriverSQLite, "":
		return newSQLiteConnector(conn)
	case domain.DatabaseDriverMySQL:
		return newSQLConnector("mysql", buildMySQLDSN(conn), mysqlDialect)
	case domain.DatabaseDriverPostgres:
		return newSQLConnector("postgres", buildPostgresDSN(conn), postgresDialect)
	case domain.DatabaseDriverMongoDB:
		return newMongoConnector(conn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}

// QuoteIdentifier quotes a table or column name the way driver's DDL does,
// so hand-built queries hit the same case-sensitive names. MongoDB names are
// returned unchanged.
func QuoteIdentifier(driver domain.DatabaseDriver, name string) string {
	switch driver {
	case domain.DatabaseDriverMySQL:
		return mysqlDialect.quote(name)
	case domain.DatabaseDriverPostgres:
		return postgresDialect.quote(name)
	case domain.DatabaseDriverMongoDB:
		return name
	default:
		return sqliteDialect.quote(name)
	}
}
