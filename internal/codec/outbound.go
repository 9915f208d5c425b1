package codec

import (
	"fmt"
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

// Client-facing error texts.
const (
	MsgRoomCodeRequired = "Room code is required"
	MsgRoomNotFound     = "Room not found"
	MsgRoomNameRequired = "Room name is required"
	MsgInvalidFormat    = "Invalid message format"
	MsgStorage          = "Storage unavailable"
	MsgRateLimited      = "Rate limit exceeded"
	MsgNoFreeCode       = "Could not allocate a room code"
)

// JoinAck is sent only to the connection that joined.
type JoinAck struct {
	Type      EventType       `json:"type"`
	RoomID    domain.RoomID   `json:"roomId"`
	RoomName  string          `json:"roomName"`
	RoomCode  domain.RoomCode `json:"roomCode"`
	UserCount int             `json:"userCount"`
	Timestamp string          `json:"timestamp"`
}

// Presence is the join/leave notice broadcast to a room's live set.
type Presence struct {
	Type      EventType       `json:"type"`
	RoomCode  domain.RoomCode `json:"roomCode"`
	UserID    domain.UserID   `json:"userId"`
	Message   string          `json:"message"`
	UserCount int             `json:"userCount"`
	Timestamp string          `json:"timestamp"`
}

// Chat carries a live message or a replayed history entry.
type Chat struct {
	Type      EventType       `json:"type"`
	RoomCode  domain.RoomCode `json:"roomCode"`
	UserID    domain.UserID   `json:"userId"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
}

type CreateRoomAck struct {
	Type      EventType       `json:"type"`
	RoomID    domain.RoomID   `json:"roomId"`
	RoomName  string          `json:"roomName"`
	RoomCode  domain.RoomCode `json:"roomCode"`
	Message   string          `json:"message"`
	UserCount int             `json:"userCount"`
	Timestamp string          `json:"timestamp"`
}

type Error struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

func NewJoinAck(room *domain.Room, count int, at time.Time) JoinAck {
	return JoinAck{
		Type:      TypeJoin,
		RoomID:    room.ID,
		RoomName:  room.Name,
		RoomCode:  room.Code,
		UserCount: count,
		Timestamp: FormatTime(at),
	}
}

func NewJoined(code domain.RoomCode, user domain.UserID, count int, at time.Time) Presence {
	return Presence{
		Type:      TypeJoin,
		RoomCode:  code,
		UserID:    user,
		Message:   fmt.Sprintf("User %s joined the room", user),
		UserCount: count,
		Timestamp: FormatTime(at),
	}
}

func NewLeft(code domain.RoomCode, user domain.UserID, count int, at time.Time) Presence {
	return Presence{
		Type:      TypeLeave,
		RoomCode:  code,
		UserID:    user,
		Message:   fmt.Sprintf("User %s left the room", user),
		UserCount: count,
		Timestamp: FormatTime(at),
	}
}

// NewChat builds a live message broadcast. The timestamp is whatever the
// sender supplied, or the formatted receipt time.
func NewChat(code domain.RoomCode, user domain.UserID, content, timestamp string) Chat {
	return Chat{
		Type:      TypeMessage,
		RoomCode:  code,
		UserID:    user,
		Message:   content,
		Timestamp: timestamp,
	}
}

// NewHistory replays a stored message, keeping its original type.
func NewHistory(code domain.RoomCode, m domain.Message) Chat {
	t := EventType(m.Type)
	if t == "" {
		t = TypeMessage
	}
	return Chat{
		Type:      t,
		RoomCode:  code,
		UserID:    m.UserID,
		Message:   m.Content,
		Timestamp: FormatTime(m.Timestamp),
	}
}

func NewCreateRoomAck(room *domain.Room, count int, at time.Time) CreateRoomAck {
	return CreateRoomAck{
		Type:      TypeCreateRoom,
		RoomID:    room.ID,
		RoomName:  room.Name,
		RoomCode:  room.Code,
		Message:   room.Description,
		UserCount: count,
		Timestamp: FormatTime(at),
	}
}

func NewError(msg string) Error {
	return Error{Type: TypeError, Message: msg}
}

// Event is the union of every outbound shape, for clients that decode
// frames without knowing their type up front.
type Event struct {
	Type      EventType       `json:"type"`
	RoomID    domain.RoomID   `json:"roomId,omitempty"`
	RoomName  string          `json:"roomName,omitempty"`
	RoomCode  domain.RoomCode `json:"roomCode,omitempty"`
	UserID    domain.UserID   `json:"userId,omitempty"`
	Message   string          `json:"message,omitempty"`
	UserCount int             `json:"userCount,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}
