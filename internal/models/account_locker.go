package models

import (
	"sync"
)

// AccountLocker serializes trades per account without a global lock.
// Two concurrent trades against the same account take turns; trades
// against different accounts proceed fully in parallel.
type AccountLocker struct {
	accountLocks map[int64]*sync.Mutex // account id → mutex
	mapMutex     sync.RWMutex          // protects the map itself
}

// NewAccountLocker creates an empty locker.
func NewAccountLocker() *AccountLocker {
	return &AccountLocker{
		accountLocks: make(map[int64]*sync.Mutex),
	}
}

// Lock acquires the mutex for a specific account, creating it on first use.
func (al *AccountLocker) Lock(accountID int64) {
	al.mapMutex.Lock()

	if al.accountLocks[accountID] == nil {
		al.accountLocks[accountID] = &sync.Mutex{}
	}

	accountMutex := al.accountLocks[accountID]
	al.mapMutex.Unlock()

	accountMutex.Lock()
}

// Unlock releases the mutex for a specific account.
func (al *AccountLocker) Unlock(accountID int64) {
	al.mapMutex.RLock()
	accountMutex := al.accountLocks[accountID]
	al.mapMutex.RUnlock()

	if accountMutex != nil {
		accountMutex.Unlock()
	}
}
