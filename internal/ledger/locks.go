package ledger

import (
	"context"
	"sync"
)

// accountLocks hands out one exclusive slot per account. Entries live only
// while someone holds or waits for them, so the map stays bounded by the
// number of accounts with in-flight work.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	slot chan struct{}
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*accountLock)}
}

// acquire blocks until the account's slot is free or ctx is done. The
// returned release func is safe to call more than once.
func (l *accountLocks) acquire(ctx context.Context, accountId string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[accountId]
	if !ok {
		lock = &accountLock{slot: make(chan struct{}, 1)}
		l.locks[accountId] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.slot <- struct{}{}:
	case <-ctx.Done():
		l.forget(accountId, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.slot
			l.forget(accountId, lock)
		})
	}, nil
}

func (l *accountLocks) forget(accountId string, lock *accountLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, accountId)
	}
}

// size reports the number of accounts with a live entry
func (l *accountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
