package etl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banketl/internal/etl"
)

// stubSource returns a fixed table, or err.
type stubSource struct {
	table *etl.Table
	err   error
}

func (s *stubSource) Spec() etl.SourceSpec { return etl.SourceSpec{Type: "stub", Label: "Stub"} }

func (s *stubSource) Read(context.Context, etl.SourceConfig, []string) (*etl.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.table.Clone(), nil
}

type engineFixture struct {
	store *memStore
	rec   *recorder
	job   *etl.Job
}

func newEngineFixture(t *testing.T, src *stubSource) (*etl.Engine, *engineFixture) {
	t.Helper()
	etl.RegisterSource(src)

	dir := t.TempDir()
	ratesPath := filepath.Join(dir, "exchange_rate.csv")
	require.NoError(t, os.WriteFile(ratesPath, []byte("Currency,Rate\nEUR,0.9\n"), 0644))

	f := &engineFixture{
		store: newMemStore(),
		rec:   &recorder{},
		job: &etl.Job{
			ID:         "run-1",
			SourceType: "stub",
			RatesPath:  ratesPath,
			CSVPath:    filepath.Join(dir, "banks.csv"),
			TableName:  "Largest_banks",
		},
	}
	e := &etl.Engine{
		Connect: func(context.Context) (etl.TableStore, error) { return f.store, nil },
		Emitter: f.rec,
	}
	return e, f
}

func TestEngineRun_Success(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{table: banks()})

	res, err := e.Run(context.Background(), f.job)
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, etl.StateClosed, res.State)
	assert.Equal(t, 2, res.RowsRead)
	assert.Equal(t, 2, res.RowsWritten)
	assert.Equal(t, []string{"Name", "MC_USD_Billion", "MC_EUR_Billion"}, res.Columns)
	require.NotNil(t, res.Query)
	assert.Equal(t, [][]any{
		{"Bank A", 100.5, 90.45},
		{"Bank B", 50.25, 45.23},
	}, res.Query.Rows())

	assert.Equal(t, []etl.State{
		etl.StateInit, etl.StateExtracted, etl.StateTransformed, etl.StateCsvSaved,
		etl.StateDbConnected, etl.StateDbLoaded, etl.StateQueried, etl.StateClosed,
	}, f.rec.states)
	assert.Equal(t, "etl:init", f.rec.events[0])
	assert.Equal(t, "etl:closed", f.rec.events[len(f.rec.events)-1])
	assert.Equal(t, 1, f.store.closed)
	assert.Equal(t, []string{`SELECT * FROM "Largest_banks"`}, f.store.queries)

	raw, err := os.ReadFile(f.job.CSVPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Bank B,50.25,45.23")
}

func TestEngineRun_Idempotent(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{table: banks()})

	first, err := e.Run(context.Background(), f.job)
	require.NoError(t, err)
	csv1, err := os.ReadFile(f.job.CSVPath)
	require.NoError(t, err)

	second, err := e.Run(context.Background(), f.job)
	require.NoError(t, err)
	csv2, err := os.ReadFile(f.job.CSVPath)
	require.NoError(t, err)

	assert.Equal(t, csv1, csv2)
	assert.Equal(t, first.Query.Rows(), second.Query.Rows())
	assert.Len(t, f.store.rows["Largest_banks"], 2)
}

func TestEngineRun_ExtractFailure(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{err: etl.ErrNetwork})

	res, err := e.Run(context.Background(), f.job)
	require.Error(t, err)
	assert.ErrorIs(t, err, etl.ErrNetwork)

	var se *etl.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, etl.StateInit, se.State)
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, []etl.State{etl.StateInit}, f.rec.states)

	_, statErr := os.Stat(f.job.CSVPath)
	assert.True(t, os.IsNotExist(statErr), "no csv written after failed extraction")
	assert.Zero(t, f.store.closed)
}

func TestEngineRun_BadRatesFile(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{table: banks()})
	require.NoError(t, os.WriteFile(f.job.RatesPath, []byte("Currency,Rate\nEUR,0\n"), 0644))

	_, err := e.Run(context.Background(), f.job)
	assert.ErrorIs(t, err, etl.ErrFormat)

	var se *etl.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, etl.StateExtracted, se.State)
}

func TestEngineRun_ConnectFailureKeepsCSV(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{table: banks()})
	e.Connect = func(context.Context) (etl.TableStore, error) { return nil, errors.New("refused") }

	res, err := e.Run(context.Background(), f.job)
	assert.ErrorIs(t, err, etl.ErrIO)
	assert.Equal(t, etl.StateCsvSaved, res.State)

	_, statErr := os.Stat(f.job.CSVPath)
	assert.NoError(t, statErr)
	assert.NotContains(t, f.rec.events, "etl:closed")
}

func TestEngineRun_LoadFailureClosesStore(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{table: banks()})
	f.store.replaceErr = errors.New("disk full")

	res, err := e.Run(context.Background(), f.job)
	assert.ErrorIs(t, err, etl.ErrIO)
	assert.Equal(t, etl.StateDbConnected, res.State)
	assert.Equal(t, 1, f.store.closed)

	_, statErr := os.Stat(f.job.CSVPath)
	assert.NoError(t, statErr, "csv kept after store failure")
}

func TestEngineRun_QueryFailureClosesStore(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{table: banks()})
	f.job.Query = "SELECT * FROM nope"

	res, err := e.Run(context.Background(), f.job)
	assert.ErrorIs(t, err, etl.ErrQuery)
	assert.Equal(t, etl.StateDbLoaded, res.State)
	assert.Equal(t, 1, f.store.closed)
	assert.Equal(t, "etl:closed", f.rec.events[len(f.rec.events)-1])
	assert.NotContains(t, f.rec.states[:len(f.rec.states)-1], etl.StateQueried)
}

func TestEngineRun_CloseFailure(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{table: banks()})
	f.store.closeErr = errors.New("broken pipe")

	res, err := e.Run(context.Background(), f.job)
	assert.ErrorIs(t, err, etl.ErrIO)
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, etl.StateQueried, res.State)
	assert.NotContains(t, f.rec.events, "etl:closed")
}

func TestEngineRun_RejectsBadColumns(t *testing.T) {
	e, f := newEngineFixture(t, &stubSource{table: banks()})
	f.job.Columns = []string{"Bank", "Cap"}

	_, err := e.Run(context.Background(), f.job)
	assert.ErrorIs(t, err, etl.ErrMissingColumn)
	assert.Empty(t, f.rec.events)
}

func TestState_StringAndMessage(t *testing.T) {
	assert.Equal(t, "csv_saved", etl.StateCsvSaved.String())
	assert.Equal(t, "Process Complete", etl.StateQueried.Message())
	assert.Equal(t, "Server Connection closed", etl.StateClosed.Message())
	assert.Equal(t, "state(42)", etl.State(42).String())
	assert.Empty(t, etl.State(42).Message())
}

func TestSourceRegistry(t *testing.T) {
	etl.RegisterSource(&stubSource{})

	s, err := etl.GetSource("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", s.Spec().Type)

	_, err = etl.GetSource("nope")
	assert.Error(t, err)

	var types []string
	for _, spec := range etl.ListSources() {
		types = append(types, spec.Type)
	}
	assert.Contains(t, types, "stub")
	assert.True(t, sort.StringsAreSorted(types))
}

func TestSourceSpec_Validate(t *testing.T) {
	spec := etl.SourceSpec{Type: "x", ConfigFields: []etl.ConfigField{{Key: "path", Required: true}, {Key: "opt"}}}
	assert.NoError(t, spec.Validate(etl.SourceConfig{"path": "a.csv"}))
	assert.Error(t, spec.Validate(etl.SourceConfig{"path": ""}))
	assert.Error(t, spec.Validate(etl.SourceConfig{}))
}
