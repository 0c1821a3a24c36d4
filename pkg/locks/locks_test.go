package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameUser(t *testing.T) {
	userLocks := NewUserLocks()

	// 100 goroutines incrementing a counter under the same user's lock
	// must not lose any updates
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := userLocks.Lock("user1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestDifferentUsersDoNotBlock(t *testing.T) {
	userLocks := NewUserLocks()

	releaseA := userLocks.Lock("userA")
	defer releaseA()

	// Acquiring a different user's lock while userA is held must not deadlock
	done := make(chan struct{})
	go func() {
		releaseB := userLocks.Lock("userB")
		releaseB()
		close(done)
	}()

	<-done
}

func TestLockEntriesAreReleased(t *testing.T) {
	userLocks := NewUserLocks()

	release := userLocks.Lock("user1")
	release()

	userLocks.mu.Lock()
	defer userLocks.mu.Unlock()
	assert.Empty(t, userLocks.locks, "released locks should not accumulate")
}
