package etl_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banketl/internal/etl"
)

func TestLoadRates(t *testing.T) {
	rt, err := etl.LoadRates(strings.NewReader("Currency,Rate\nGBP,0.8\nEUR, 0.93\nINR,82.95\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, rt.Len())
	assert.Equal(t, []string{"GBP", "EUR", "INR"}, rt.Codes())

	eur, ok := rt.Rate("EUR")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("0.93").Equal(eur))

	_, ok = rt.Rate("eur")
	assert.False(t, ok, "lookups are case-sensitive")
}

func TestLoadRates_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"duplicate code", "Currency,Rate\nEUR,0.9\nEUR,0.91\n"},
		{"zero rate", "Currency,Rate\nEUR,0\n"},
		{"negative rate", "Currency,Rate\nEUR,-0.9\n"},
		{"not a number", "Currency,Rate\nEUR,abc\n"},
		{"three columns", "Currency,Rate\nEUR,0.9,x\n"},
		{"one column header", "Currency\nEUR\n"},
		{"empty code", "Currency,Rate\n,0.9\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := etl.LoadRates(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, etl.ErrFormat), "got %v", err)
		})
	}
}

func TestLoadRatesFile_Missing(t *testing.T) {
	_, err := etl.LoadRatesFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, etl.ErrIO)
}

func TestLoadRatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	require.NoError(t, os.WriteFile(path, []byte("Currency,Rate\nEUR,0.9\n"), 0644))

	rt, err := etl.LoadRatesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR"}, rt.Codes())
}

func TestNewRateTable_RejectsNonPositive(t *testing.T) {
	_, err := etl.NewRateTable(etl.RateEntry{CurrencyCode: "EUR", Rate: decimal.Zero})
	assert.ErrorIs(t, err, etl.ErrFormat)
}
