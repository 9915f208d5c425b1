package core

import (
	"context"
	"errors"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Frame is one encoded outbound event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues without waiting. A full queue is ErrBackpressure.
	TrySend(Frame) error
	// Send waits for queue space until ctx is done.
	Send(ctx context.Context, f Frame) error
	Close()
}
