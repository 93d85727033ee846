package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dialect captures the SQL differences between the supported engines.
type dialect struct {
	quote       func(name string) string
	placeholder func(i int) string // 1-based
	textType    string
	numberType  string

	// queryOnly returns the statement that toggles a session read-only, for
	// drivers that ignore sql.TxOptions.ReadOnly. Nil means the driver
	// honours ReadOnly.
	queryOnly func(on bool) string
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func questionMark(int) string { return "?" }

// sqlConnector is the shared implementation for MySQL, Postgres, and SQLite.
type sqlConnector struct {
	driverName string
	db         *sql.DB
	dialect    dialect
}

// newSQLConnector creates a generic SQL connector.
func newSQLConnector(driverName, dsn string, d dialect) (*sqlConnector, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{driverName: driverName, db: db, dialect: d}, nil
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

// isReadQuery detects if a query is a single read statement (SELECT, WITH,
// SHOW, DESCRIBE, EXPLAIN). One trailing semicolon is allowed; any other
// semicolon rejects the query, including one inside a string literal.
func isReadQuery(query string) bool {
	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	if strings.Contains(q, ";") {
		return false
	}
	q = strings.ToUpper(q)
	for _, prefix := range []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// createTableSQL builds the CREATE TABLE statement for columns.
func (c *sqlConnector) createTableSQL(table string, columns []Column) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		typ := c.dialect.textType
		if col.Type == TypeNumber {
			typ = c.dialect.numberType
		}
		defs[i] = c.dialect.quote(col.Name) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", c.dialect.quote(table), strings.Join(defs, ", "))
}

// insertSQL builds a single-row INSERT statement for columns.
func (c *sqlConnector) insertSQL(table string, columns []Column) string {
	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		names[i] = c.dialect.quote(col.Name)
		marks[i] = c.dialect.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.dialect.quote(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

func (c *sqlConnector) ReplaceTable(ctx context.Context, table string, columns []Column, rows [][]any) (int, error) {
	if table == "" {
		return 0, fmt.Errorf("table name is required")
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("table %s has no columns", table)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if c.dialect.queryOnly != nil {
		if _, err := tx.ExecContext(ctx, c.dialect.queryOnly(false)); err != nil {
			return 0, fmt.Errorf("leave read-only mode: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+c.dialect.quote(table)); err != nil {
		return 0, fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, c.createTableSQL(table, columns)); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	insert := c.insertSQL(table, columns)
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("row %d has %d values, want %d", i+1, len(row), len(columns))
		}
		if _, err := tx.ExecContext(ctx, insert, row...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(rows), nil
}

func (c *sqlConnector) Query(ctx context.Context, query string) (*QueryPage, error) {
	if !isReadQuery(query) {
		return nil, fmt.Errorf("only read queries are allowed: %q", query)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Reads run in a transaction that is always rolled back, so a statement
	// that slips past isReadQuery (WITH ... DELETE) still cannot write.
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: c.dialect.queryOnly == nil})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()
	if c.dialect.queryOnly != nil {
		if _, err := tx.ExecContext(ctx, c.dialect.queryOnly(true)); err != nil {
			return nil, fmt.Errorf("enter read-only mode: %w", err)
		}
		defer tx.ExecContext(context.Background(), c.dialect.queryOnly(false))
	}

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	numeric := make([]bool, len(cols))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, t := range types {
			numeric[i] = isNumericType(t.DatabaseTypeName())
		}
	}

	page := &QueryPage{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for j := range values {
			ptrs[j] = &values[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make([]any, len(cols))
		for j, v := range values {
			row[j] = formatValue(v, numeric[j])
		}
		page.Rows = append(page.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return page, nil
}

// isNumericType reports whether a driver column type holds floating-point
// or decimal values.
func isNumericType(name string) bool {
	switch strings.ToUpper(name) {
	case "REAL", "DOUBLE", "DOUBLE PRECISION", "FLOAT", "FLOAT4", "FLOAT8", "NUMERIC", "DECIMAL":
		return true
	}
	return false
}

// formatValue normalises a scanned value. Text drivers hand back numbers as
// bytes; those are parsed when the column is numeric.
func formatValue(v any, numeric bool) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case []byte:
		s := string(val)
		if numeric {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return s
	case string:
		if numeric {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}
