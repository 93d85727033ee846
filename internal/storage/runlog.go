package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"banketl/internal/etl"
)

// RunLog is one recorded pipeline run.
type RunLog struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	SourceType  string    `json:"sourceType"`
	TableName   string    `json:"tableName"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Status      string    `json:"status"`
	LastState   string    `json:"lastState"`
	RowsRead    int       `json:"rowsRead"`
	RowsWritten int       `json:"rowsWritten"`
	Error       string    `json:"error,omitempty"`
}

// NewRunLog builds a history entry from a finished run.
func NewRunLog(job *etl.Job, result *etl.RunResult, finishedAt time.Time) *RunLog {
	return &RunLog{
		JobID:       job.ID,
		SourceType:  job.SourceType,
		TableName:   job.TableName,
		StartedAt:   finishedAt.Add(-result.Duration),
		FinishedAt:  finishedAt,
		Status:      result.Status,
		LastState:   result.State.String(),
		RowsRead:    result.RowsRead,
		RowsWritten: result.RowsWritten,
		Error:       result.Error,
	}
}

// RunLogStore persists run history.
type RunLogStore struct {
	db *DB
}

// NewRunLogStore creates a new RunLogStore.
func NewRunLogStore(db *DB) *RunLogStore {
	return &RunLogStore{db: db}
}

func (s *RunLogStore) CreateRunLog(log *RunLog) error {
	log.ID = uuid.New().String()
	_, err := s.db.conn.Exec(
		`INSERT INTO etl_run_logs (id, job_id, source_type, table_name, started_at, finished_at,
		 status, last_state, rows_read, rows_written, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.JobID, log.SourceType, log.TableName, log.StartedAt.UTC(), log.FinishedAt.UTC(),
		log.Status, log.LastState, log.RowsRead, log.RowsWritten, log.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run log: %w", err)
	}
	return nil
}

// ListRunLogs returns the most recent runs, newest first.
func (s *RunLogStore) ListRunLogs(limit int) ([]RunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.Query(
		`SELECT id, job_id, source_type, table_name, started_at, finished_at,
		 status, last_state, rows_read, rows_written, error
		 FROM etl_run_logs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []RunLog
	for rows.Next() {
		var l RunLog
		if err := rows.Scan(&l.ID, &l.JobID, &l.SourceType, &l.TableName, &l.StartedAt, &l.FinishedAt,
			&l.Status, &l.LastState, &l.RowsRead, &l.RowsWritten, &l.Error); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
