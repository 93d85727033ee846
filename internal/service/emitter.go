package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"banketl/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples the pipeline from where progress goes
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for emitting pipeline progress events.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// ProgressTimeFormat renders DD/MM/YYYY hh:mm:ssAM/PM.
const ProgressTimeFormat = "02/01/2006 03:04:05PM"

// FileEmitter appends one timestamped line per event to a log file.
// Logging is best-effort: write failures are reported through slog and
// otherwise ignored.
type FileEmitter struct {
	Path string
	Now  func() time.Time

	mu sync.Mutex
}

// NewFileEmitter returns a FileEmitter writing to path.
func NewFileEmitter(path string) *FileEmitter {
	return &FileEmitter{Path: path, Now: time.Now}
}

func (f *FileEmitter) Emit(_ context.Context, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.appendLine(FormatProgressLine(f.now(), messageOf(data))); err != nil {
		slog.Warn("progress log write failed", "path", f.Path, "event", event, "error", err)
	}
}

func (f *FileEmitter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *FileEmitter) appendLine(line string) error {
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(line); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// FormatProgressLine renders a single progress-log line, newline included.
func FormatProgressLine(at time.Time, message string) string {
	return fmt.Sprintf("%s - %s\n", at.Format(ProgressTimeFormat), message)
}

func messageOf(data any) string {
	switch v := data.(type) {
	case etl.ProgressEvent:
		return v.Message
	case *etl.ProgressEvent:
		return v.Message
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Messages returns the progress messages recorded so far.
func (m *MockEmitter) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = messageOf(e.Data)
	}
	return out
}
