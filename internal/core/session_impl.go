package core

import (
	"sync"

	"github.com/dkeye/Relay/internal/domain"
)

// session implements Session by pairing the binding with its transport.
type session struct {
	id   SessionID
	conn SignalConnection

	mu   sync.RWMutex
	room domain.RoomCode
	user domain.UserID
}

func NewSession(id SessionID, conn SignalConnection) Session {
	return &session{id: id, conn: conn}
}

func (s *session) ID() SessionID            { return s.id }
func (s *session) Signal() SignalConnection { return s.conn }

func (s *session) Binding() (domain.RoomCode, domain.UserID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room, s.user, s.room != ""
}

func (s *session) Bind(code domain.RoomCode, user domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = code
	s.user = user
}

func (s *session) Unbind(code domain.RoomCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == "" || s.room != code {
		return false
	}
	s.room = ""
	return true
}
