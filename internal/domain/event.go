package domain

import "time"

type EventKind string

const (
	EventRoomCreated    EventKind = "room.created"
	EventMemberJoined   EventKind = "member.joined"
	EventMemberLeft     EventKind = "member.left"
	EventMessageCreated EventKind = "message.created"
)

// RoomEvent is the record of a completed relay flow, exported to
// downstream consumers. It is not part of the client wire protocol.
type RoomEvent struct {
	Kind      EventKind `json:"kind"`
	RoomCode  RoomCode  `json:"roomCode"`
	UserID    UserID    `json:"userId,omitempty"`
	Content   string    `json:"content,omitempty"`
	UserCount int       `json:"userCount"`
	At        time.Time `json:"at"`
}
