package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// runLocks serializes allocation runs per (resource, period). Two executors
// running against the same rule set or pool for the same period would
// double-count cost, so the second caller is rejected instead of queued.
type runLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func newRunLocks() *runLocks {
	return &runLocks{held: make(map[string]bool)}
}

func runKey(id uuid.UUID, periodStart, periodEnd time.Time) string {
	return fmt.Sprintf("%s/%s/%s", id, periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
}

// acquire takes all keys or none.
func (l *runLocks) acquire(keys []string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range keys {
		if l.held[key] {
			return false
		}
	}

	for _, key := range keys {
		l.held[key] = true
	}

	return true
}

func (l *runLocks) release(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range keys {
		delete(l.held, key)
	}
}
