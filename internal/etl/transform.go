package etl

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ── Transformer ────────────────────────────────────────────
// Transformers derive a new table from their input. They never mutate the
// table they receive and never add, drop or reorder rows.

// ConversionPrecision is the number of decimal places kept in converted
// market-cap columns.
const ConversionPrecision = 2

// Transformer derives a new table from an input table.
type Transformer interface {
	Transform(*Table) (*Table, error)
}

// ApplyTransformers runs a chain of transformers, stopping at the first error.
func ApplyTransformers(t *Table, ts ...Transformer) (*Table, error) {
	for _, tr := range ts {
		var err error
		t, err = tr.Transform(t)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CurrencyTransform appends one converted market-cap column per currency.
type CurrencyTransform struct {
	Rates *RateTable
}

func (c *CurrencyTransform) Transform(in *Table) (*Table, error) {
	if c.Rates == nil {
		return nil, fmt.Errorf("%w: no exchange rates loaded", ErrFormat)
	}
	if in.Schema == nil || !in.Schema.Has(ColumnUSD) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnUSD)
	}

	out := in.Clone()
	for _, code := range c.Rates.Codes() {
		col := ColumnNameFor(code)
		if !out.Schema.Has(col) {
			out.Schema.Fields = append(out.Schema.Fields, Field{Name: col, Type: FieldNumber})
		}
	}

	for i, rec := range out.Records {
		usd, ok := rec.Float(ColumnUSD)
		if !ok {
			return nil, fmt.Errorf("%w: row %d (%q) has no numeric %s", ErrMissingColumn, i+1, rec.Name(), ColumnUSD)
		}
		for _, code := range c.Rates.Codes() {
			rate, _ := c.Rates.Rate(code)
			rec.Data[ColumnNameFor(code)] = Convert(usd, rate)
		}
	}
	return out, nil
}

// Convert multiplies a USD amount by rate and rounds half away from zero to
// ConversionPrecision places.
func Convert(usd float64, rate decimal.Decimal) float64 {
	v, _ := decimal.NewFromFloat(usd).Mul(rate).Round(ConversionPrecision).Float64()
	return v
}
