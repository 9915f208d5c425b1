package core

import (
	"sync"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// liveRoom is a threadsafe in-memory live set.
// It never closes adapter-owned resources.
type liveRoom struct {
	code  domain.RoomCode
	mu    sync.RWMutex
	bySID map[SessionID]Session
}

func NewLiveRoom(code domain.RoomCode) LiveRoom {
	return &liveRoom{
		code:  code,
		bySID: make(map[SessionID]Session),
	}
}

func (r *liveRoom) Code() domain.RoomCode { return r.code }

func (r *liveRoom) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *liveRoom) Has(sid SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySID[sid]
	return ok
}

func (r *liveRoom) AddMember(s Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[s.ID()] = s
	log.Debug().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(s.ID())).Int("count", len(r.bySID)).Msg("member added")
	return len(r.bySID)
}

func (r *liveRoom) RemoveMember(sid SessionID) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bySID[sid]
	delete(r.bySID, sid)
	if ok {
		log.Debug().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Int("count", len(r.bySID)).Msg("member removed")
	}
	return len(r.bySID), ok
}

// Broadcast enqueues data on every member without waiting. Members whose
// queue is full or closed come back in Dropped.
func (r *liveRoom) Broadcast(data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, m := range r.bySID {
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.code)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *liveRoom) Members() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.bySID))
	for _, s := range r.bySID {
		out = append(out, s)
	}
	return out
}
