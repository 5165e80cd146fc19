package services

import (
	"sync"
)

// MarketLocks is a keyed single-writer lock. Operations on the same market
// serialize; operations on different markets never contend.
type MarketLocks struct {
	mu    sync.Mutex
	locks map[uint64]*marketLock
}

type marketLock struct {
	mu   sync.Mutex
	refs int
}

func NewMarketLocks() *MarketLocks {
	return &MarketLocks{locks: make(map[uint64]*marketLock)}
}

// Lock blocks until the caller holds marketID's lock and returns its release func
func (l *MarketLocks) Lock(marketID uint64) func() {
	l.mu.Lock()
	lock, ok := l.locks[marketID]
	if !ok {
		lock = &marketLock{}
		l.locks[marketID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, marketID)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of markets currently locked or waited on
func (l *MarketLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
