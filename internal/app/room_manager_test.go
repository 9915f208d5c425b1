package app

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopConn struct{ full bool }

func (c nopConn) TrySend(core.Frame) error {
	if c.full {
		return core.ErrBackpressure
	}
	return nil
}
func (c nopConn) Send(context.Context, core.Frame) error { return c.TrySend(nil) }
func (nopConn) Close()                                   {}

func sess(id string) core.Session { return core.NewSession(core.SessionID(id), nopConn{}) }

func TestRoomRegistryLifecycle(t *testing.T) {
	r := NewRoomRegistry()
	const code domain.RoomCode = "ABC123"

	assert.False(t, r.Has(code))
	assert.Zero(t, r.CountOf(code))
	assert.Nil(t, r.MembersOf(code))

	assert.Equal(t, 1, r.Add(code, sess("a")))
	assert.Equal(t, 2, r.Add(code, sess("b")))
	assert.True(t, r.Has(code))
	assert.Len(t, r.MembersOf(code), 2)

	n, ok := r.Remove(code, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, n)
	assert.True(t, r.Has(code))

	n, ok = r.Remove(code, "b")
	assert.True(t, ok)
	assert.Zero(t, n)
	assert.False(t, r.Has(code), "empty entries are dropped")
	assert.Zero(t, r.Len())

	n, ok = r.Remove(code, "b")
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestRoomRegistryEnsureReturnsSameRoom(t *testing.T) {
	r := NewRoomRegistry()
	a := r.Ensure("ABC123")
	b := r.Ensure("ABC123")
	assert.Same(t, a, b)
	assert.True(t, r.Has("ABC123"))
	assert.Zero(t, r.CountOf("ABC123"))
}

func TestRoomRegistryBroadcastAndList(t *testing.T) {
	r := NewRoomRegistry()
	r.Add("BBB222", sess("a"))
	r.Add("BBB222", core.NewSession("slow", nopConn{full: true}))
	r.Add("AAA111", sess("c"))

	res := r.Broadcast("BBB222", core.Frame("x"))
	assert.Equal(t, 1, res.SendTo)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, core.SessionID("slow"), res.Dropped[0].ID())

	assert.Equal(t, core.PublishResult{}, r.Broadcast("NONE00", core.Frame("x")))

	assert.Equal(t, []core.RoomInfo{
		{Code: "AAA111", MemberCount: 1},
		{Code: "BBB222", MemberCount: 2},
	}, r.List())
}

func TestRoomRegistryConcurrentAddRemove(t *testing.T) {
	r := NewRoomRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code := domain.RoomCode(fmt.Sprintf("R%d", i%4))
			id := core.SessionID(fmt.Sprintf("s%d", i))
			r.Add(code, core.NewSession(id, nopConn{}))
			r.Remove(code, id)
		}(i)
	}
	wg.Wait()
	assert.Zero(t, r.Len())
}
