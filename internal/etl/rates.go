package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// ── RateTable ──────────────────────────────────────────────
// Currency code → multiplier relative to USD, loaded once per run and
// read-only afterwards.

// RateEntry is one row of the exchange-rate file.
type RateEntry struct {
	CurrencyCode string
	Rate         decimal.Decimal
}

// RateTable maps currency codes to their USD rate.
// Codes keeps the source order so derived columns are deterministic.
type RateTable struct {
	rates map[string]decimal.Decimal
	codes []string
}

// NewRateTable builds a table from entries, enforcing unique codes and
// positive rates.
func NewRateTable(entries ...RateEntry) (*RateTable, error) {
	rt := &RateTable{rates: make(map[string]decimal.Decimal, len(entries))}
	for _, e := range entries {
		if err := rt.add(e.CurrencyCode, e.Rate); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func (rt *RateTable) add(code string, rate decimal.Decimal) error {
	if code == "" {
		return fmt.Errorf("%w: empty currency code", ErrFormat)
	}
	if _, dup := rt.rates[code]; dup {
		return fmt.Errorf("%w: duplicate currency code %q", ErrFormat, code)
	}
	if !rate.IsPositive() {
		return fmt.Errorf("%w: rate for %s must be positive, got %s", ErrFormat, code, rate)
	}
	rt.rates[code] = rate
	rt.codes = append(rt.codes, code)
	return nil
}

// Rate returns the rate for an exact, case-sensitive currency code.
func (rt *RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := rt.rates[code]
	return r, ok
}

// Codes returns the currency codes in load order.
func (rt *RateTable) Codes() []string {
	return append([]string(nil), rt.codes...)
}

// Len returns the number of currencies.
func (rt *RateTable) Len() int { return len(rt.codes) }

// LoadRates parses a two-column CSV (header, then currency_code,rate rows).
func LoadRates(r io.Reader) (*RateTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty exchange-rate file", ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrFormat, err)
	}
	if len(header) != 2 {
		return nil, fmt.Errorf("%w: expected 2 columns, header has %d", ErrFormat, len(header))
	}

	rt := &RateTable{rates: make(map[string]decimal.Decimal)}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		if len(row) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 columns, got %d", ErrFormat, line, len(row))
		}
		code := strings.TrimSpace(row[0])
		rate, err := decimal.NewFromString(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: rate %q is not a number", ErrFormat, line, row[1])
		}
		if err := rt.add(code, rate); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return rt, nil
}

// LoadRatesFile opens path and parses it with LoadRates.
func LoadRatesFile(path string) (*RateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open exchange rates: %v", ErrIO, err)
	}
	defer f.Close()
	return LoadRates(f)
}
