package database

import (
	"context"
	"sync"
)

// staffLocks serializes booking writes per staff member. A global lock would
// also be correct but would throttle unrelated staff calendars; a lock per
// staff id keeps throughput while preserving the check-then-insert atomicity.
type staffLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newStaffLocks() *staffLocks {
	return &staffLocks{locks: make(map[string]chan struct{})}
}

func (l *staffLocks) get(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

// acquire blocks until the staff lock is held or the context expires.
// The returned release func must be called exactly once.
func (l *staffLocks) acquire(ctx context.Context, staffID string) (func(), error) {
	ch := l.get(staffID)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ErrLockTimeout
	}
}
