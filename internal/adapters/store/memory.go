package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

// Memory is a process-local store. Everything is lost on restart.
type Memory struct {
	mu       sync.Mutex
	lastRoom domain.RoomID
	lastMsg  domain.MessageID
	rooms    map[domain.RoomCode]*domain.Room
	messages map[domain.RoomID][]domain.Message
	members  map[domain.RoomID][]domain.Membership
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		rooms:    make(map[domain.RoomCode]*domain.Room),
		messages: make(map[domain.RoomID][]domain.Message),
		members:  make(map[domain.RoomID][]domain.Membership),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) GetRoomByCode(_ context.Context, code domain.RoomCode) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) CreateRoom(_ context.Context, p domain.RoomParams) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[p.Code]; ok {
		return nil, domain.ErrRoomExists
	}
	r := m.createLocked(p)
	return &r, nil
}

func (m *Memory) createLocked(p domain.RoomParams) domain.Room {
	m.lastRoom++
	r := &domain.Room{
		ID:          m.lastRoom,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   m.now(),
	}
	m.rooms[p.Code] = r
	return *r
}

func (m *Memory) ResolveOrCreateRoom(_ context.Context, code domain.RoomCode) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.resolveLocked(code)
	return &r, nil
}

func (m *Memory) resolveLocked(code domain.RoomCode) domain.Room {
	if r, ok := m.rooms[code]; ok {
		return *r
	}
	return m.createLocked(domain.AutoRoom(code))
}

func (m *Memory) ListRooms(_ context.Context) ([]domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b domain.Room) int {
		return strings.Compare(string(a.Code), string(b.Code))
	})
	return out, nil
}

func (m *Memory) GetMessagesByRoomCode(_ context.Context, code domain.RoomCode) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return []domain.Message{}, nil
	}
	return append([]domain.Message{}, m.messages[r.ID]...), nil
}

func (m *Memory) CreateMessage(_ context.Context, code domain.RoomCode, p domain.MessageParams) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.resolveLocked(code)
	if p.Type == "" {
		p.Type = domain.MessageTypeChat
	}
	m.lastMsg++
	msg := domain.Message{
		ID:        m.lastMsg,
		RoomID:    r.ID,
		UserID:    p.UserID,
		Content:   p.Content,
		Type:      p.Type,
		Timestamp: m.now(),
	}
	m.messages[r.ID] = append(m.messages[r.ID], msg)
	return &msg, nil
}

func (m *Memory) AddUserToRoom(_ context.Context, code domain.RoomCode, user domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.resolveLocked(code)
	for _, ms := range m.members[r.ID] {
		if ms.UserID == user {
			return nil
		}
	}
	m.members[r.ID] = append(m.members[r.ID], domain.Membership{RoomID: r.ID, UserID: user, Joined: m.now()})
	return nil
}

func (m *Memory) RemoveUserFromRoom(_ context.Context, code domain.RoomCode, user domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return nil
	}
	m.members[r.ID] = slices.DeleteFunc(m.members[r.ID], func(ms domain.Membership) bool {
		return ms.UserID == user
	})
	return nil
}

func (m *Memory) GetUsersInRoomByCode(_ context.Context, code domain.RoomCode) ([]domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return []domain.Membership{}, nil
	}
	return append([]domain.Membership{}, m.members[r.ID]...), nil
}

func (m *Memory) Close() error { return nil }
