package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"banketl/internal/config"
	"banketl/internal/dbclient"
	"banketl/internal/etl"
	_ "banketl/internal/etl/sources" // registers html_table and csv_file
	"banketl/internal/logging"
	"banketl/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// ETL Service: turns configuration into a pipeline run
// ─────────────────────────────────────────────────────────────

// ETLService builds and runs the pipeline described by a Config.
type ETLService struct {
	cfg     *config.Config
	history *storage.RunLogStore // nil disables run history
	emitter EventEmitter
	logger  *slog.Logger
	guard   runningJobsGuard

	// connect opens the table store.
	connect func(ctx context.Context) (etl.TableStore, error)
}

// NewETLService creates an ETLService ready for use.
func NewETLService(cfg *config.Config, history *storage.RunLogStore, emitter EventEmitter, logger *slog.Logger) *ETLService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ETLService{cfg: cfg, history: history, emitter: emitter, logger: logger}
	s.connect = s.openStore
	return s
}

// openStore opens the configured table store and checks it is reachable.
func (s *ETLService) openStore(ctx context.Context) (etl.TableStore, error) {
	conn, err := dbclient.NewConnector(&s.cfg.Store.Connection)
	if err != nil {
		return nil, err
	}
	if err := conn.TestConnection(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("test connection %s: %w", s.cfg.Store.Connection, err)
	}
	return conn, nil
}

// NewJob builds the pipeline job for one run under a fresh run ID.
func (s *ETLService) NewJob() *etl.Job {
	return &etl.Job{
		ID:         uuid.New().String(),
		SourceType: s.cfg.Source.Type,
		SourceCfg:  s.cfg.SourceConfig(),
		Columns:    s.cfg.Columns(),
		RatesPath:  s.cfg.Rates.Path,
		CSVPath:    s.cfg.Output.CSVPath,
		TableName:  s.cfg.Store.Table,
		Query:      s.cfg.Query(),
	}
}

// RunJob executes the pipeline once, bounded by the configured run timeout.
// A second call for the same target while one is in flight fails with
// ErrAlreadyRunning.
func (s *ETLService) RunJob(ctx context.Context) (*etl.RunResult, error) {
	key := s.cfg.Store.Connection.String() + "/" + s.cfg.Store.Table
	if !s.guard.TryLock(key) {
		return nil, ErrAlreadyRunning
	}
	defer s.guard.Unlock(key)

	job := s.NewJob()
	logger := logging.WithRun(s.logger, job.ID)

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	logger.Info("starting pipeline",
		"source", job.SourceType,
		"store", s.cfg.Store.Connection.String(),
		"table", job.TableName,
	)

	engine := &etl.Engine{
		Connect: s.connect,
		Emitter: s.emitter,
		Logger:  logger,
	}
	result, err := engine.Run(ctx, job)
	s.recordRun(logger, job, result)
	if err != nil {
		return result, err
	}

	logger.Info("pipeline finished",
		"rows_read", result.RowsRead,
		"rows_written", result.RowsWritten,
		"duration", result.Duration,
	)
	return result, nil
}

// recordRun appends the run to the history store. Failures are logged only.
func (s *ETLService) recordRun(logger *slog.Logger, job *etl.Job, result *etl.RunResult) {
	if s.history == nil || result == nil {
		return
	}
	if err := s.history.CreateRunLog(storage.NewRunLog(job, result, time.Now())); err != nil {
		logger.Warn("record run history", "error", err)
	}
}

// History returns the most recent recorded runs, newest first.
func (s *ETLService) History(limit int) ([]storage.RunLog, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRunLogs(limit)
}

// PrintHistory renders run history as aligned columns.
func PrintHistory(w io.Writer, logs []storage.RunLog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tLAST STATE\tROWS\tTABLE\tERROR")
	for _, l := range logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			l.StartedAt.Local().Format(time.DateTime), l.Status, l.LastState, l.RowsWritten, l.TableName, l.Error)
	}
	return tw.Flush()
}

// PrintQueryResult echoes the query and renders its result as aligned
// columns.
func PrintQueryResult(w io.Writer, query string, t *etl.Table) error {
	if _, err := fmt.Fprintln(w, query); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns(), "\t"))
	for _, row := range t.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = displayValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
