package orch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomLocksSerializePerRoom(t *testing.T) {
	l := newRoomLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("ABC123")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, counter)
	assert.Zero(t, l.len(), "idle rooms hold no lock entry")
}

func TestRoomLocksIndependentRooms(t *testing.T) {
	l := newRoomLocks()
	unlockA := l.lock("AAA111")
	done := make(chan struct{})
	go func() {
		unlockB := l.lock("BBB222")
		unlockB()
		close(done)
	}()
	<-done
	assert.Equal(t, 1, l.len())
	unlockA()
	assert.Zero(t, l.len())
}

func TestWithRoomReleasesOnPanic(t *testing.T) {
	l := newRoomLocks()
	assert.Panics(t, func() {
		_ = l.withRoom("ABC123", func() error { panic("boom") })
	})
	assert.Zero(t, l.len())
}
