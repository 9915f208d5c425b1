package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionRegistry(t *testing.T) {
	r := NewSessionRegistry()
	ctxA, cancelA := context.WithCancel(context.Background())
	ctxB, cancelB := context.WithCancel(context.Background())
	r.BindSignal(sess("a"), cancelA)
	r.BindSignal(sess("b"), cancelB)
	assert.Equal(t, 2, r.Len())

	r.Unbind("a")
	assert.Equal(t, 1, r.Len())
	r.Unbind("nope")
	assert.Equal(t, 1, r.Len())

	assert.Equal(t, 1, r.CancelAll())
	assert.NoError(t, ctxA.Err(), "unbound sessions are not reached")
	assert.Error(t, ctxB.Err())
}
