package core

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.full {
		return ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Send(_ context.Context, f Frame) error { return c.TrySend(f) }

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestLiveRoomAddRemove(t *testing.T) {
	r := NewLiveRoom("ABC123")
	a := NewSession("a", &fakeConn{})
	b := NewSession("b", &fakeConn{})

	assert.Equal(t, 1, r.AddMember(a))
	assert.Equal(t, 2, r.AddMember(b))
	assert.Equal(t, 2, r.AddMember(b), "re-adding the same session keeps the count")
	assert.True(t, r.Has("a"))

	n, ok := r.RemoveMember("a")
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = r.RemoveMember("a")
	assert.False(t, ok)
	assert.Equal(t, 1, n)
	assert.Len(t, r.Members(), 1)
}

func TestLiveRoomBroadcastIsolatesSlowMembers(t *testing.T) {
	r := NewLiveRoom("ABC123")
	fast := &fakeConn{}
	slow := &fakeConn{full: true}
	gone := &fakeConn{closed: true}
	r.AddMember(NewSession("fast", fast))
	r.AddMember(NewSession("slow", slow))
	r.AddMember(NewSession("gone", gone))

	res := r.Broadcast(Frame(`{"type":"message"}`))

	assert.Equal(t, 1, res.SendTo)
	require.Len(t, res.Dropped, 2)
	ids := []SessionID{res.Dropped[0].ID(), res.Dropped[1].ID()}
	assert.ElementsMatch(t, []SessionID{"slow", "gone"}, ids)
	assert.Equal(t, 1, fast.count())
}

func TestLiveRoomConcurrentMutation(t *testing.T) {
	r := NewLiveRoom("ABC123")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := NewSession(SessionID(fmt.Sprintf("s%d", i)), &fakeConn{})
			r.AddMember(s)
			r.Broadcast(Frame("x"))
			if i%2 == 0 {
				r.RemoveMember(s.ID())
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, r.MemberCount())
}

func TestSessionBinding(t *testing.T) {
	s := NewSession("a", &fakeConn{})
	_, _, ok := s.Binding()
	assert.False(t, ok)

	s.Bind("ABC123", "u1")
	code, user, ok := s.Binding()
	require.True(t, ok)
	assert.Equal(t, "ABC123", string(code))
	assert.Equal(t, "u1", string(user))

	assert.False(t, s.Unbind("OTHER1"), "a stale code must not clear the binding")
	assert.True(t, s.Unbind("ABC123"))
	_, _, ok = s.Binding()
	assert.False(t, ok)
}
