package lock

import (
	"context"
	"fmt"
	"sync"
)

// LocalLockManager is an in-process lock manager for single-node stores such as SQLite.
type LocalLockManager struct {
	mu    sync.Mutex
	locks map[int]chan struct{}
}

func NewLocalLockManager() *LocalLockManager {
	return &LocalLockManager{locks: make(map[int]chan struct{})}
}

func (l *LocalLockManager) slot(lockID int) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.locks[lockID]
	if !ok {
		s = make(chan struct{}, 1)
		l.locks[lockID] = s
	}
	return s
}

func (l *LocalLockManager) Acquire(ctx context.Context, lockID int) error {
	select {
	case l.slot(lockID) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire lock: %w", ctx.Err())
	}
}

func (l *LocalLockManager) Release(_ context.Context, lockID int) error {
	select {
	case <-l.slot(lockID):
		return nil
	default:
		return fmt.Errorf("failed to release lock: %d is not held", lockID)
	}
}
