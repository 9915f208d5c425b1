package domain

import "time"

// Membership records that a user joined a room at some point.
// It outlives the connection; live presence is tracked elsewhere.
type Membership struct {
	RoomID RoomID
	UserID UserID
	Joined time.Time
}
