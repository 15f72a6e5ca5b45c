package planner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func Test_userLocks(t *testing.T) {
	t.Parallel()
	locks := newUserLocks()

	release, err := locks.acquire(t.Context(), 1)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Another user is not blocked.
	releaseOther, err := locks.acquire(t.Context(), 2)
	if err != nil {
		t.Fatalf("acquire other user: %v", err)
	}
	releaseOther()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	if _, err = locks.acquire(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second acquire error = %v, want %v", err, context.DeadlineExceeded)
	}

	release()
	release, err = locks.acquire(t.Context(), 1)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Errorf("got %d lock entries after release, want 0", len(locks.locks))
	}
}
