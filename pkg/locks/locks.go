package locks

import (
	"sync"
)

// UserLocks provides per-user mutual exclusion so that read-check-write
// sequences on a single user's records cannot interleave. Operations on
// different users never block each other.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int // Waiters holding a reference; entry is removed at zero
}

// NewUserLocks creates a new per-user lock set
func NewUserLocks() *UserLocks {
	return &UserLocks{
		locks: make(map[string]*userLock),
	}
}

// Lock acquires the lock for the given user and returns the release function.
// Callers must invoke the release function exactly once, typically via defer.
func (l *UserLocks) Lock(userID string) func() {
	l.mu.Lock()
	entry, exists := l.locks[userID]
	if !exists {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
