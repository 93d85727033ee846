package etl_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"banketl/internal/dbclient"
	"banketl/internal/etl"
)

// memStore is an in-memory etl.TableStore.
type memStore struct {
	mu         sync.Mutex
	columns    map[string][]dbclient.Column
	rows       map[string][][]any
	replaceErr error
	queryErr   error
	closeErr   error
	closed     int
	queries    []string
}

func newMemStore() *memStore {
	return &memStore{
		columns: map[string][]dbclient.Column{},
		rows:    map[string][][]any{},
	}
}

func (m *memStore) ReplaceTable(_ context.Context, table string, columns []dbclient.Column, rows [][]any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return 0, m.replaceErr
	}
	m.columns[table] = columns
	m.rows[table] = rows
	return len(rows), nil
}

func (m *memStore) Query(_ context.Context, query string) (*dbclient.QueryPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	table, ok := strings.CutPrefix(query, "SELECT * FROM ")
	if !ok {
		return nil, fmt.Errorf("unsupported query %q", query)
	}
	table = strings.Trim(table, `"`)
	cols, ok := m.columns[table]
	if !ok {
		return nil, errors.New("no such table: " + table)
	}
	page := &dbclient.QueryPage{}
	for _, c := range cols {
		page.Columns = append(page.Columns, c.Name)
	}
	page.Rows = m.rows[table]
	return page, nil
}

func (m *memStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return m.closeErr
}

// recorder is an etl.Emitter that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []string
	states []etl.State
}

func (r *recorder) Emit(_ context.Context, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if ev, ok := data.(etl.ProgressEvent); ok {
		r.states = append(r.states, ev.State)
	}
}
