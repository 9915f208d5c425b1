package orch

import (
	"sync"

	"github.com/dkeye/Relay/internal/domain"
)

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// roomLocks hands out one mutex per room code. Entries live only while
// someone holds or waits on them.
type roomLocks struct {
	mu sync.Mutex
	m  map[domain.RoomCode]*roomLock
}

func newRoomLocks() *roomLocks {
	return &roomLocks{m: make(map[domain.RoomCode]*roomLock)}
}

// lock blocks until the room is free and returns its unlock func.
func (l *roomLocks) lock(code domain.RoomCode) func() {
	l.mu.Lock()
	rl, ok := l.m[code]
	if !ok {
		rl = &roomLock{}
		l.m[code] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.m, code)
		}
		l.mu.Unlock()
	}
}

func (l *roomLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// withRoom runs fn while holding the lock for code.
func (l *roomLocks) withRoom(code domain.RoomCode, fn func() error) error {
	unlock := l.lock(code)
	defer unlock()
	return fn()
}
