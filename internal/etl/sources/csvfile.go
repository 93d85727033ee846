package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"banketl/internal/etl"
)

// ── CSV File Source ─────────────────────────────────────────
// Reads a table previously written by the CSV destination.

type csvFileSource struct{}

func init() { etl.RegisterSource(&csvFileSource{}) }

func (s *csvFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "csv_file",
		Label: "CSV File",
		ConfigFields: []etl.ConfigField{
			{Key: "path", Label: "File Path", Required: true, Help: "CSV file with a header row"},
		},
	}
}

func (s *csvFileSource) Read(ctx context.Context, cfg etl.SourceConfig, columns []string) (*etl.Table, error) {
	if err := s.Spec().Validate(cfg); err != nil {
		return nil, err
	}
	path, _ := cfg["path"].(string)
	return ReadCSVTable(path, columns)
}

// ReadCSVTable loads path and projects it onto columns, in that order.
// Name is kept as text; every other column must parse as a float.
func ReadCSVTable(path string, columns []string) (*etl.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open file: %v", etl.ErrIO, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", etl.ErrParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty csv file", etl.ErrParse)
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[strings.TrimSpace(h)] = i
	}
	for _, c := range columns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: %s", etl.ErrMissingColumn, c)
		}
	}

	table := etl.NewTable(columns)
	for line, row := range records[1:] {
		values := make([]any, len(columns))
		for j, c := range columns {
			cell := strings.TrimSpace(row[index[c]])
			if c == etl.ColumnName {
				values[j] = cell
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s value %q is not a number", etl.ErrParse, line+2, c, cell)
			}
			values[j] = v
		}
		table.Append(values...)
	}
	return table, nil
}
