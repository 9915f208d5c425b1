package core

import (
	"github.com/dkeye/Relay/internal/domain"
)

// PublishResult reports delivery stats/backpressure to the relay.
type PublishResult struct {
	SendTo  int
	Dropped []Session
}

// LiveRoom is the set of connections currently joined to one room.
// It owns the membership set but never touches transport resources.
type LiveRoom interface {
	Code() domain.RoomCode
	MemberCount() int
	Members() []Session
	Has(sid SessionID) bool

	AddMember(s Session) int
	RemoveMember(sid SessionID) (int, bool)
	Broadcast(data Frame) PublishResult
}

type RoomInfo struct {
	Code        domain.RoomCode `json:"code"`
	MemberCount int             `json:"userCount"`
}

// Registry maps room codes to live rooms. An entry exists only while
// its live set is non-empty, except between Ensure and the first Add.
type Registry interface {
	Ensure(code domain.RoomCode) LiveRoom
	// Add returns the live count after insertion.
	Add(code domain.RoomCode, s Session) int
	// Remove returns the live count after removal and whether the
	// session was in the set. The entry is dropped once it is empty.
	Remove(code domain.RoomCode, sid SessionID) (int, bool)
	CountOf(code domain.RoomCode) int
	MembersOf(code domain.RoomCode) []Session
	Has(code domain.RoomCode) bool
	Broadcast(code domain.RoomCode, data Frame) PublishResult
	List() []RoomInfo
	Len() int
}
