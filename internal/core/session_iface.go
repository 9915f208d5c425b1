package core

import "github.com/dkeye/Relay/internal/domain"

type SessionID string

// Session is the relay's view of one open connection: its transport
// endpoint plus the room and user it last joined under.
type Session interface {
	ID() SessionID
	Signal() SignalConnection
	Binding() (domain.RoomCode, domain.UserID, bool)
	Bind(code domain.RoomCode, user domain.UserID)
	// Unbind clears the binding only while it still points at code.
	Unbind(code domain.RoomCode) bool
}
