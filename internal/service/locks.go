package service

import "sync"

// learnerLocks serializes work per learner inside one process
type learnerLocks struct {
	mu    sync.Mutex
	locks map[int64]*learnerLock
}

type learnerLock struct {
	mu   sync.Mutex
	refs int
}

func newLearnerLocks() *learnerLocks {
	return &learnerLocks{locks: make(map[int64]*learnerLock)}
}

// lock blocks until the learner's lock is held and returns its release func
func (l *learnerLocks) lock(userID int64) func() {
	l.mu.Lock()
	lk, ok := l.locks[userID]
	if !ok {
		lk = &learnerLock{}
		l.locks[userID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()

	return func() {
		lk.mu.Unlock()

		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
