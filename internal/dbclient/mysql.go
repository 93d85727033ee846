package dbclient

import (
	"fmt"
	"strings"

	"banketl/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	quote:       func(name string) string { return "`" + strings.ReplaceAll(name, "`", "``") + "`" },
	placeholder: questionMark,
	textType:    "TEXT",
	numberType:  "DOUBLE",
}

// buildMySQLDSN constructs a MySQL DSN from a DatabaseConnection.
func buildMySQLDSN(conn *domain.DatabaseConnection) string {
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	// Format: user:password@tcp(host:port)/dbname?parseTime=true
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		conn.Username, conn.Password, conn.Host, port, conn.Database,
	)
	if conn.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
