package domain

import (
	"errors"
	"time"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

type (
	RoomID   uint64
	RoomCode string
)

// Room is the durable record of a chat room. The code is the public,
// case-sensitive token clients type; ID is the store's own identity.
type Room struct {
	ID          RoomID    `json:"id"`
	Code        RoomCode  `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoomParams is what a caller supplies to create a room.
type RoomParams struct {
	Code        RoomCode
	Name        string
	Description string
}

// AutoRoom is the template used when a room is created implicitly by
// the first write that references an unknown code.
func AutoRoom(code RoomCode) RoomParams {
	return RoomParams{
		Code:        code,
		Name:        "Room " + string(code),
		Description: "Auto-created room",
	}
}
