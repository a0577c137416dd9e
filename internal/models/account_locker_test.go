package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountLockerSerializesSameAccount(t *testing.T) {
	t.Parallel()

	locker := NewAccountLocker()
	const workers = 50

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locker.Lock(1)
			defer locker.Unlock(1)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestAccountLockerIndependentAccounts(t *testing.T) {
	t.Parallel()

	locker := NewAccountLocker()

	// Holding account 1 must not block account 2.
	locker.Lock(1)
	done := make(chan struct{})
	go func() {
		locker.Lock(2)
		locker.Unlock(2)
		close(done)
	}()
	<-done
	locker.Unlock(1)
}

func TestAccountLockerUnlockUnknownAccountIsNoop(t *testing.T) {
	t.Parallel()

	locker := NewAccountLocker()
	locker.Unlock(99)
}
