package core

import (
	"context"

	"github.com/dkeye/Relay/internal/domain"
)

// Store is the durable record of rooms, messages and membership.
// Lookups of an unknown code return domain.ErrRoomNotFound; list reads
// of an unknown code return an empty slice.
type Store interface {
	GetRoomByCode(ctx context.Context, code domain.RoomCode) (*domain.Room, error)
	// CreateRoom fails with domain.ErrRoomExists when the code is taken.
	CreateRoom(ctx context.Context, p domain.RoomParams) (*domain.Room, error)
	// ResolveOrCreateRoom returns the room for code, creating it from
	// domain.AutoRoom when absent.
	ResolveOrCreateRoom(ctx context.Context, code domain.RoomCode) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)

	// GetMessagesByRoomCode returns history in append order.
	GetMessagesByRoomCode(ctx context.Context, code domain.RoomCode) ([]domain.Message, error)
	CreateMessage(ctx context.Context, code domain.RoomCode, p domain.MessageParams) (*domain.Message, error)

	// AddUserToRoom is idempotent per (room, user).
	AddUserToRoom(ctx context.Context, code domain.RoomCode, user domain.UserID) error
	RemoveUserFromRoom(ctx context.Context, code domain.RoomCode, user domain.UserID) error
	GetUsersInRoomByCode(ctx context.Context, code domain.RoomCode) ([]domain.Membership, error)

	Close() error
}

// Recorder receives relay activity for metrics.
type Recorder interface {
	EventHandled(kind, outcome string)
	Broadcast(sent, dropped int)
}

// Publisher exports completed room events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev domain.RoomEvent) error
}

type NopRecorder struct{}

func (NopRecorder) EventHandled(string, string) {}
func (NopRecorder) Broadcast(int, int)          {}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.RoomEvent) error { return nil }
