package app

import (
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomRegistry is the process-wide map from room code to live set.
// Entries are created on first Add and dropped when the set empties.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]core.LiveRoom
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomCode]core.LiveRoom)}
}

func (f *RoomRegistry) Ensure(code domain.RoomCode) core.LiveRoom {
	f.mu.RLock()
	room, ok := f.rooms[code]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensureLocked(code)
}

func (f *RoomRegistry) ensureLocked(code domain.RoomCode) core.LiveRoom {
	if room, ok := f.rooms[code]; ok {
		return room
	}
	room := core.NewLiveRoom(code)
	f.rooms[code] = room
	log.Debug().Str("module", "app.rooms").Str("room", string(code)).Msg("live room created")
	return room
}

func (f *RoomRegistry) Add(code domain.RoomCode, s core.Session) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensureLocked(code).AddMember(s)
}

func (f *RoomRegistry) Remove(code domain.RoomCode, sid core.SessionID) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[code]
	if !ok {
		return 0, false
	}
	n, removed := room.RemoveMember(sid)
	if n == 0 {
		delete(f.rooms, code)
		log.Debug().Str("module", "app.rooms").Str("room", string(code)).Msg("live room dropped")
	}
	return n, removed
}

func (f *RoomRegistry) get(code domain.RoomCode) (core.LiveRoom, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[code]
	return room, ok
}

func (f *RoomRegistry) CountOf(code domain.RoomCode) int {
	if room, ok := f.get(code); ok {
		return room.MemberCount()
	}
	return 0
}

func (f *RoomRegistry) MembersOf(code domain.RoomCode) []core.Session {
	if room, ok := f.get(code); ok {
		return room.Members()
	}
	return nil
}

func (f *RoomRegistry) Has(code domain.RoomCode) bool {
	_, ok := f.get(code)
	return ok
}

func (f *RoomRegistry) Broadcast(code domain.RoomCode, data core.Frame) core.PublishResult {
	if room, ok := f.get(code); ok {
		return room.Broadcast(data)
	}
	return core.PublishResult{}
}

func (f *RoomRegistry) List() []core.RoomInfo {
	f.mu.RLock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for code, r := range f.rooms {
		out = append(out, core.RoomInfo{Code: code, MemberCount: r.MemberCount()})
	}
	f.mu.RUnlock()
	slices.SortFunc(out, func(a, b core.RoomInfo) int {
		return strings.Compare(string(a.Code), string(b.Code))
	})
	return out
}

func (f *RoomRegistry) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}
