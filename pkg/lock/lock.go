// Package lock provides the advisory lock capability that serializes
// migration runs against one target store.
//
// The lock is a capability passed to the migration caller rather than
// ambient state, so tests substitute the in-memory implementation. Blue and
// green runs against the same store must never execute concurrently; runs
// against distinct stores take distinct locks and proceed in parallel.
package lock

import "context"

// Locker grants exclusive, scoped access to a target store for the duration
// of one migration run.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// release function must be called exactly once.
	Acquire(ctx context.Context) (release func() error, err error)
}

// Memory is a process-local Locker. It serializes runs within one process
// only; cross-process serialization needs a store-scoped lock such as
// Postgres advisory locks.
type Memory struct {
	sem chan struct{}
}

// NewMemory returns an unheld in-memory lock.
func NewMemory() *Memory {
	return &Memory{sem: make(chan struct{}, 1)}
}

func (m *Memory) Acquire(ctx context.Context) (func() error, error) {
	select {
	case m.sem <- struct{}{}:
		return func() error {
			<-m.sem
			return nil
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
