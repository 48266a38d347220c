package scan

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gofrs/flock"
)

// ErrScanInProgress is returned when a sweep is already running.
var ErrScanInProgress = errors.New("scan already in progress")

// Guard prevents overlapping sweeps. The atomic flag covers the current
// process; the optional lock file covers other processes (a CLI scan while
// the daemon runs).
type Guard struct {
	running atomic.Bool
	lock    *flock.Flock
}

// NewGuard returns a guard backed by lockPath. An empty path disables the
// cross-process lock.
func NewGuard(lockPath string) *Guard {
	g := &Guard{}
	if lockPath != "" {
		g.lock = flock.New(lockPath)
	}
	return g
}

// TryAcquire claims the guard or returns ErrScanInProgress. The returned
// release function must be called exactly once.
func (g *Guard) TryAcquire() (func(), error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	if g.lock != nil {
		ok, err := g.lock.TryLock()
		if err != nil {
			g.running.Store(false)
			return nil, fmt.Errorf("acquire scan lock: %w", err)
		}
		if !ok {
			g.running.Store(false)
			return nil, ErrScanInProgress
		}
	}
	return func() {
		if g.lock != nil {
			_ = g.lock.Unlock()
		}
		g.running.Store(false)
	}, nil
}

// Running reports whether this process currently holds the guard.
func (g *Guard) Running() bool {
	return g.running.Load()
}
