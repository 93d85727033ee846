package etl

import (
	"context"
	"fmt"

	"banketl/internal/dbclient"
	"banketl/internal/domain"
)

// DefaultQuery returns the query run after loading: every row of table.
// The table name is quoted as the store's DDL quotes it, so engines that
// fold unquoted names (Postgres) find the table.
func DefaultQuery(driver domain.DatabaseDriver, table string) string {
	if driver == domain.DatabaseDriverMongoDB {
		return fmt.Sprintf(`{"collection": %q}`, table)
	}
	return "SELECT * FROM " + dbclient.QuoteIdentifier(driver, table)
}

// RunQuery executes a read-only query against the store and returns the
// result as a table. Nothing is retried.
func RunQuery(ctx context.Context, store TableStore, query string) (*Table, error) {
	page, err := store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return pageToTable(page), nil
}

// pageToTable converts a query page into a table. A column is numeric when
// every non-null value in it is a number.
func pageToTable(page *dbclient.QueryPage) *Table {
	t := &Table{Schema: &Schema{Fields: make([]Field, len(page.Columns))}}
	for j, name := range page.Columns {
		typ := FieldText
		seen := false
		numeric := true
		for _, row := range page.Rows {
			if j >= len(row) || row[j] == nil {
				continue
			}
			seen = true
			if _, ok := toFloat(row[j]); !ok {
				numeric = false
				break
			}
		}
		if seen && numeric {
			typ = FieldNumber
		}
		t.Schema.Fields[j] = Field{Name: name, Type: typ}
	}

	for _, row := range page.Rows {
		data := make(map[string]any, len(page.Columns))
		for j, name := range page.Columns {
			if j >= len(row) {
				continue
			}
			v := row[j]
			if t.Schema.Fields[j].Type == FieldNumber {
				if f, ok := toFloat(v); ok {
					v = f
				}
			}
			data[name] = v
		}
		t.Records = append(t.Records, Record{Data: data})
	}
	return t
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
