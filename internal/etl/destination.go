package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"banketl/internal/dbclient"
)

// ── Destination ────────────────────────────────────────────
// A Destination persists a whole table. Both sinks replace what was there
// before; neither appends.

// Destination writes a table to a target system and returns rows written.
type Destination interface {
	Write(ctx context.Context, t *Table) (int, error)
}

// TableStore is the relational (or document) store collaborator.
// dbclient.Connector satisfies it.
type TableStore interface {
	ReplaceTable(ctx context.Context, table string, columns []dbclient.Column, rows [][]any) (int, error)
	Query(ctx context.Context, query string) (*dbclient.QueryPage, error)
	Close() error
}

// ── CSV Destination ────────────────────────────────────────

// CSVFileWriter overwrites Path with the table, header row first.
// A failure mid-write leaves a partial file behind.
type CSVFileWriter struct {
	Path string
}

func (w *CSVFileWriter) Write(ctx context.Context, t *Table) (int, error) {
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("%w: create output directory: %v", ErrIO, err)
		}
	}

	f, err := os.Create(w.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %v", ErrIO, w.Path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns()); err != nil {
		return 0, fmt.Errorf("%w: write header: %v", ErrIO, err)
	}

	written := 0
	for i, row := range t.Rows() {
		select {
		case <-ctx.Done():
			return written, fmt.Errorf("%w: write aborted: %w", ErrIO, ctx.Err())
		default:
		}
		line := make([]string, len(row))
		for j, v := range row {
			line[j] = formatCell(v)
		}
		if err := cw.Write(line); err != nil {
			return written, fmt.Errorf("%w: write row %d: %v", ErrIO, i+1, err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("%w: flush csv: %v", ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return written, fmt.Errorf("%w: close %s: %v", ErrIO, w.Path, err)
	}
	return written, nil
}

// formatCell renders a value the way the CSV sink stores it. Floats use the
// shortest representation that round-trips.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// ── Table-store Destination ────────────────────────────────

// TableStoreWriter replaces a named table in the store with the current
// schema and contents, so repeated runs converge on the same state.
type TableStoreWriter struct {
	Store TableStore
	Table string
}

func (w *TableStoreWriter) Write(ctx context.Context, t *Table) (int, error) {
	cols := make([]dbclient.Column, len(t.Schema.Fields))
	for i, f := range t.Schema.Fields {
		cols[i] = dbclient.Column{Name: f.Name, Type: mapFieldType(f.Type)}
	}
	n, err := w.Store.ReplaceTable(ctx, w.Table, cols, t.Rows())
	if err != nil {
		return n, fmt.Errorf("%w: replace table %s: %v", ErrIO, w.Table, err)
	}
	return n, nil
}

// mapFieldType converts ETL field types to store column types.
func mapFieldType(t string) string {
	if t == FieldNumber {
		return dbclient.TypeNumber
	}
	return dbclient.TypeText
}
