package domain

import (
	"fmt"
	"time"
)

type MessageID uint64

type MessageType string

const (
	MessageTypeChat   MessageType = "message"
	MessageTypeSystem MessageType = "system"
)

// Message is immutable once appended.
type Message struct {
	ID        MessageID   `json:"id"`
	RoomID    RoomID      `json:"roomId"`
	UserID    UserID      `json:"userId"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageParams is what a caller supplies to append a message.
type MessageParams struct {
	UserID  UserID
	Content string
	Type    MessageType
}

func RoomCreatedNotice(by UserID) MessageParams {
	return MessageParams{
		UserID:  SystemUser,
		Content: fmt.Sprintf("Room created by %s", by),
		Type:    MessageTypeSystem,
	}
}
