package service

import "sync"

// AccountLocks hands out one mutex per account number: concurrent mutations
// of the same account serialize while disjoint accounts proceed in
// parallel. One registry is shared by every service that mutates accounts,
// so the one-writer-per-account rule holds across service boundaries.
// Entries are never removed; the registry grows with the number of accounts
// ever touched, which is bounded by the ledger's size.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *AccountLocks) get(number string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[number]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[number] = lock
	}
	return lock
}

func (l *AccountLocks) lock(number string) func() {
	lock := l.get(number)
	lock.Lock()
	return lock.Unlock
}

// lockPair acquires both accounts in ascending number order so two
// opposing transfers over the same pair cannot deadlock.
func (l *AccountLocks) lockPair(a, b string) func() {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	firstLock := l.get(first)
	secondLock := l.get(second)
	firstLock.Lock()
	secondLock.Lock()
	return func() {
		secondLock.Unlock()
		firstLock.Unlock()
	}
}
