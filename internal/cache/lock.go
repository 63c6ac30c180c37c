package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// retryDelay is how often LockContext re-attempts acquisition while
// waiting for another process to release the lock.
const retryDelay = 50 * time.Millisecond

// RevisionLock is the advisory exclusive lock on a revision directory's
// "<revision>.lock" sibling. Writers into the revision directory
// (writing the recipe file, creating profile directories, writing flag
// files, copying installs) must hold it across the mutation. Readers
// that tolerate torn writes may proceed without it.
type RevisionLock struct {
	fl *flock.Flock
}

// NewRevisionLock returns a lock bound to path, creating parent
// directories as needed so the lock file itself can be created.
func NewRevisionLock(path string) (*RevisionLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &RevisionLock{fl: flock.New(path)}, nil
}

// Lock blocks until the exclusive lock is acquired. This is the single
// point in the resolver/build-state engine where a call may wait
// indefinitely.
func (l *RevisionLock) Lock() error {
	return l.fl.Lock()
}

// LockContext acquires the lock, giving up if ctx is done first.
func (l *RevisionLock) LockContext(ctx context.Context) error {
	return l.fl.TryLockContext(ctx, retryDelay)
}

// Unlock releases the lock.
func (l *RevisionLock) Unlock() error {
	return l.fl.Unlock()
}

// WithLock runs fn while holding the exclusive lock, always unlocking
// afterward regardless of fn's outcome.
func (l *RevisionLock) WithLock(fn func() error) error {
	if err := l.Lock(); err != nil {
		return err
	}
	defer l.fl.Unlock()
	return fn()
}
