package domain

import (
	"fmt"
	"strings"
)

// DatabaseDriver represents the type of database engine.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// Valid reports whether the driver is one the table store supports.
func (d DatabaseDriver) Valid() bool {
	switch d {
	case DatabaseDriverMySQL, DatabaseDriverPostgres, DatabaseDriverMongoDB, DatabaseDriverSQLite:
		return true
	}
	return false
}

// DatabaseConnection holds what is needed to open the table store.
type DatabaseConnection struct {
	Driver   DatabaseDriver `json:"driver" yaml:"driver"`
	Host     string         `json:"host" yaml:"host"` // hostname, URI (mongodb) or file path (sqlite)
	Port     int            `json:"port" yaml:"port"` // 0 for sqlite
	Database string         `json:"database" yaml:"database"`
	Username string         `json:"username" yaml:"username"`
	Password string         `json:"-" yaml:"password"`
	SSLMode  string         `json:"sslMode" yaml:"ssl_mode"`
}

// String describes the connection without credentials.
func (c DatabaseConnection) String() string {
	if c.Driver == DatabaseDriverSQLite {
		return fmt.Sprintf("sqlite:%s", c.Host)
	}
	if strings.Contains(c.Host, "://") {
		return fmt.Sprintf("%s/%s", c.Driver, c.Database)
	}
	return fmt.Sprintf("%s://%s:%d/%s", c.Driver, c.Host, c.Port, c.Database)
}
