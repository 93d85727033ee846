package etl

import "strings"

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// Sources emit Tables, transformers derive new Tables, destinations
// consume them.

// Field types.
const (
	FieldText   = "text"
	FieldNumber = "number"
)

// Fixed leading columns of every extracted table.
const (
	ColumnName = "Name"
	ColumnUSD  = "MC_USD_Billion"
)

// DefaultColumns is the expected schema of an extracted table.
var DefaultColumns = []string{ColumnName, ColumnUSD}

// ColumnNameFor returns the converted market-cap column for a currency code.
func ColumnNameFor(currencyCode string) string {
	return "MC_" + currencyCode + "_Billion"
}

// Field describes a single column in a dataset.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "number"
}

// Schema describes the ordered columns of a table.
type Schema struct {
	Fields []Field `json:"fields"`
}

// SchemaFor builds a schema from column names. Name is text, everything
// else is numeric.
func SchemaFor(columns []string) *Schema {
	s := &Schema{Fields: make([]Field, len(columns))}
	for i, c := range columns {
		typ := FieldNumber
		if c == ColumnName {
			typ = FieldText
		}
		s.Fields[i] = Field{Name: c, Type: typ}
	}
	return s
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the schema contains a field with the given name.
func (s *Schema) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Record is a single row of data flowing through the pipeline.
type Record struct {
	Data map[string]any `json:"data"`
}

// Name returns the trimmed entity name of the record.
func (r Record) Name() string {
	s, _ := r.Data[ColumnName].(string)
	return strings.TrimSpace(s)
}

// Float returns a numeric column value.
func (r Record) Float(column string) (float64, bool) {
	f, ok := r.Data[column].(float64)
	return f, ok
}

// Table is an ordered collection of records sharing one schema.
type Table struct {
	Schema  *Schema  `json:"schema"`
	Records []Record `json:"records"`
}

// NewTable returns an empty table with the given columns.
func NewTable(columns []string) *Table {
	return &Table{Schema: SchemaFor(columns)}
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	if t.Schema == nil {
		return nil
	}
	return t.Schema.FieldNames()
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Records) }

// Append adds a record built from values in schema order.
func (t *Table) Append(values ...any) {
	data := make(map[string]any, len(t.Schema.Fields))
	for i, f := range t.Schema.Fields {
		if i < len(values) {
			data[f.Name] = values[i]
		}
	}
	t.Records = append(t.Records, Record{Data: data})
}

// Rows returns the record values in schema order.
func (t *Table) Rows() [][]any {
	cols := t.Columns()
	rows := make([][]any, len(t.Records))
	for i, rec := range t.Records {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = rec.Data[c]
		}
		rows[i] = row
	}
	return rows
}

// Clone returns a deep copy so derived tables never alias their input.
func (t *Table) Clone() *Table {
	out := &Table{Schema: &Schema{}}
	if t.Schema != nil {
		out.Schema.Fields = append([]Field(nil), t.Schema.Fields...)
	}
	out.Records = make([]Record, len(t.Records))
	for i, rec := range t.Records {
		data := make(map[string]any, len(rec.Data))
		for k, v := range rec.Data {
			data[k] = v
		}
		out.Records[i] = Record{Data: data}
	}
	return out
}
