package dbclient

import (
	"fmt"

	"banketl/internal/domain"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	quote:       quoteDouble,
	placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
	textType:    "TEXT",
	numberType:  "DOUBLE PRECISION",
}

// buildPostgresDSN constructs a Postgres connection string from a DatabaseConnection.
func buildPostgresDSN(conn *domain.DatabaseConnection) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.Username, conn.Password, conn.Database, sslMode,
	)
}
