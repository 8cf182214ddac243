package ledger

import "sync"

// userLocks serializes balance-affecting operations per user. Two concurrent
// purchases by the same user must not both pass the affordability check
// against the same stale balance.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

// acquire locks the mutex for the given user, creating it on first use, and
// returns it so the caller can defer the unlock.
func (l *userLocks) acquire(userID int64) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
