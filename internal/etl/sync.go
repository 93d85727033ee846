package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"banketl/internal/domain"
)

// ── Pipeline ───────────────────────────────────────────────
// Orchestrates: source.Read → currency transform → CSV sink → table-store
// sink → query. Strictly sequential, no branching, no retries.

// State is a step of the pipeline state machine.
type State int

const (
	StateInit State = iota
	StateExtracted
	StateTransformed
	StateCsvSaved
	StateDbConnected
	StateDbLoaded
	StateQueried
	StateClosed
)

var stateNames = [...]string{
	"init", "extracted", "transformed", "csv_saved",
	"db_connected", "db_loaded", "queried", "closed",
}

var stateMessages = [...]string{
	"Preliminaries complete. Initiating ETL process",
	"Data extraction complete. Initiating Transformation process",
	"Data transformation complete. Initiating Loading process",
	"Data saved to CSV file",
	"SQL Connection initiated",
	"Data loaded to Database as a table, Executing queries",
	"Process Complete",
	"Server Connection closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Message is the progress-log line written when the state is reached.
func (s State) Message() string {
	if s < 0 || int(s) >= len(stateMessages) {
		return ""
	}
	return stateMessages[s]
}

// ProgressEvent is emitted once per state transition.
type ProgressEvent struct {
	RunID   string    `json:"runId"`
	State   State     `json:"state"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Emitter receives progress events. service.EventEmitter satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Job holds the configuration for a single pipeline run.
type Job struct {
	ID         string       `json:"id"`
	SourceType string       `json:"sourceType"`
	SourceCfg  SourceConfig `json:"sourceConfig"`
	Columns    []string     `json:"columns"`
	RatesPath  string       `json:"ratesPath"`
	CSVPath    string       `json:"csvPath"`
	TableName  string       `json:"tableName"`
	Query      string       `json:"query"`
}

// RunResult is the outcome of a pipeline run.
type RunResult struct {
	JobID       string        `json:"jobId"`
	Status      string        `json:"status"` // "success" | "error"
	State       State         `json:"state"`  // last state reached
	RowsRead    int           `json:"rowsRead"`
	RowsWritten int           `json:"rowsWritten"`
	Columns     []string      `json:"columns"`
	Query       *Table        `json:"query,omitempty"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// Engine runs the pipeline against a store obtained from Connect.
type Engine struct {
	Connect func(ctx context.Context) (TableStore, error)
	Emitter Emitter
	Logger  *slog.Logger
}

// Run executes the job end-to-end. On failure the run stops at the current
// state; side effects of earlier states are kept. Once connected, the store
// is closed on every exit path.
func (e *Engine) Run(ctx context.Context, job *Job) (result *RunResult, err error) {
	start := time.Now()
	result = &RunResult{JobID: job.ID, State: StateInit}
	defer func() {
		result.Duration = time.Since(start)
		if err != nil {
			result.Status = "error"
			result.Error = err.Error()
			e.logger().Error("pipeline failed", "job_id", job.ID, "state", result.State, "error", err)
			return
		}
		result.Status = "success"
	}()

	columns := job.Columns
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	if len(columns) < 2 || columns[0] != ColumnName || columns[1] != ColumnUSD {
		return result, e.fail(result, fmt.Errorf("%w: columns must start with %s, %s", ErrMissingColumn, ColumnName, ColumnUSD))
	}

	e.advance(ctx, job, result, StateInit)

	// 1. Extract.
	source, err := GetSource(job.SourceType)
	if err != nil {
		return result, e.fail(result, err)
	}
	raw, err := source.Read(ctx, job.SourceCfg, columns)
	if err != nil {
		return result, e.fail(result, err)
	}
	result.RowsRead = raw.Len()
	e.advance(ctx, job, result, StateExtracted)

	// 2. Transform.
	rates, err := LoadRatesFile(job.RatesPath)
	if err != nil {
		return result, e.fail(result, err)
	}
	enriched, err := ApplyTransformers(raw, &CurrencyTransform{Rates: rates})
	if err != nil {
		return result, e.fail(result, err)
	}
	result.Columns = enriched.Columns()
	e.advance(ctx, job, result, StateTransformed)

	// 3. Load to CSV.
	var csvDest Destination = &CSVFileWriter{Path: job.CSVPath}
	if _, err := csvDest.Write(ctx, enriched); err != nil {
		return result, e.fail(result, err)
	}
	e.advance(ctx, job, result, StateCsvSaved)

	// 4. Connect.
	store, err := e.Connect(ctx)
	if err != nil {
		return result, e.fail(result, fmt.Errorf("%w: connect store: %v", ErrIO, err))
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			e.logger().Warn("close store", "job_id", job.ID, "error", cerr)
			if err == nil {
				err = e.fail(result, fmt.Errorf("%w: close store: %v", ErrIO, cerr))
			}
			return
		}
		if err == nil {
			e.advance(ctx, job, result, StateClosed)
		} else {
			e.emit(ctx, job, StateClosed)
		}
	}()
	e.advance(ctx, job, result, StateDbConnected)

	// 5. Load to the table store.
	var storeDest Destination = &TableStoreWriter{Store: store, Table: job.TableName}
	written, err := storeDest.Write(ctx, enriched)
	if err != nil {
		return result, e.fail(result, err)
	}
	result.RowsWritten = written
	e.advance(ctx, job, result, StateDbLoaded)

	// 6. Query.
	query := job.Query
	if query == "" {
		query = DefaultQuery(domain.DatabaseDriverSQLite, job.TableName)
	}
	out, err := RunQuery(ctx, store, query)
	if err != nil {
		return result, e.fail(result, err)
	}
	result.Query = out
	e.advance(ctx, job, result, StateQueried)

	return result, nil
}

func (e *Engine) advance(ctx context.Context, job *Job, result *RunResult, s State) {
	result.State = s
	e.emit(ctx, job, s)
}

func (e *Engine) emit(ctx context.Context, job *Job, s State) {
	e.logger().Info(s.Message(), "job_id", job.ID, "state", s.String())
	if e.Emitter == nil {
		return
	}
	e.Emitter.Emit(ctx, "etl:"+s.String(), ProgressEvent{
		RunID:   job.ID,
		State:   s,
		Message: s.Message(),
		At:      time.Now(),
	})
}

func (e *Engine) fail(result *RunResult, err error) error {
	return &StageError{State: result.State, Err: err}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
