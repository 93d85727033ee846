package service

import (
	"errors"
	"sync"
)

// ErrAlreadyRunning is returned when a run targeting the same table store
// is still in progress in this process.
var ErrAlreadyRunning = errors.New("a run for this target is already in progress")

// ExportedRunningGuard is an exported alias so _test packages can test the guard.
type ExportedRunningGuard = runningJobsGuard

// ─────────────────────────────────────────────────────────────
// runningJobsGuard: prevents overlapping runs against one target
// ─────────────────────────────────────────────────────────────

// runningJobsGuard ensures only one run per key (store + table) is active
// at a time. Overlapping runs would race on the CSV file and the
// drop-and-recreate of the table.
type runningJobsGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// TryLock attempts to mark key as running. Returns false if it already is.
func (g *runningJobsGuard) TryLock(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[key]; ok {
		return false
	}
	g.running[key] = struct{}{}
	return true
}

// Unlock marks key as no longer running. Must be called after TryLock returns true.
func (g *runningJobsGuard) Unlock(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, key)
}
