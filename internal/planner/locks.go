package planner

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// userLocks serialises plan mutations per user. Entries are removed once nobody holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[int]*userLock
}

type userLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{mu: sync.Mutex{}, locks: make(map[int]*userLock)}
}

// acquire blocks until the lock of userID is free or ctx is done. The returned function releases the lock.
func (l *userLocks) acquire(ctx context.Context, userID int) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{sem: semaphore.NewWeighted(1), refs: 0}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		l.unref(userID, lock)
		return nil, fmt.Errorf("acquire user lock: %w", err)
	}
	return func() {
		lock.sem.Release(1)
		l.unref(userID, lock)
	}, nil
}

func (l *userLocks) unref(userID int, lock *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, userID)
	}
}
