package orch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dkeye/Relay/internal/codec"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

var errNoFreeCode = errors.New("no free room code")

// join admits s to an existing room. Unknown codes are rejected; unlike
// message, join never creates a room.
func (o *Orchestrator) join(ctx context.Context, s core.Session, in codec.Inbound) error {
	code := domain.RoomCode(in.Room)
	if code == "" {
		return reject(codec.MsgRoomCodeRequired)
	}
	sctx, cancel := o.storeCtx(ctx)
	room, err := o.Store.GetRoomByCode(sctx, code)
	cancel()
	if errors.Is(err, domain.ErrRoomNotFound) {
		return reject(codec.MsgRoomNotFound)
	}
	if err != nil {
		return wrapStore("get room", code, err)
	}
	return o.enter(ctx, s, room, domain.UserID(in.UserID))
}

// enter is the join flow proper: durable membership, live insert, ack,
// notice to the whole room, then history for the joiner alone. The room s
// was in before is left only once the new one has been entered.
func (o *Orchestrator) enter(ctx context.Context, s core.Session, room *domain.Room, user domain.UserID) error {
	code := room.Code
	prev := bindingOf(s)

	var (
		count   int
		history []domain.Message
		now     time.Time
	)
	err := o.locks.withRoom(code, func() error {
		sctx, cancel := o.storeCtx(ctx)
		defer cancel()
		var err error
		// Read under the lock so history and live messages neither overlap nor miss.
		if history, err = o.Store.GetMessagesByRoomCode(sctx, code); err != nil {
			return wrapStore("history", code, err)
		}
		if err := o.Store.AddUserToRoom(sctx, code, user); err != nil {
			return wrapStore("add member", code, err)
		}

		count = o.Rooms.Add(code, s)
		s.Bind(code, user)
		now = o.now()
		o.deliver(code, s, codec.NewJoinAck(room, count, now))
		o.broadcast(code, codec.NewJoined(code, user, count, now))
		return nil
	})
	if err != nil {
		return err
	}
	o.leavePrevious(ctx, s, prev, code)

	log.Info().Str("module", "app.orch").Str("sid", string(s.ID())).Str("room", string(code)).Str("user", string(user)).Int("count", count).Msg("joined")
	o.publish(ctx, domain.RoomEvent{Kind: domain.EventMemberJoined, RoomCode: code, UserID: user, UserCount: count, At: now})

	for _, m := range history {
		o.reply(ctx, s, codec.NewHistory(code, m))
	}
	return nil
}

// leave is the explicit leave: durable membership goes too. A room with
// no live entry makes it a no-op.
func (o *Orchestrator) leave(ctx context.Context, s core.Session, in codec.Inbound) error {
	code := domain.RoomCode(in.Room)
	if code == "" {
		return errIgnored
	}
	user := domain.UserID(in.UserID)
	if bound, boundUser, ok := s.Binding(); ok && bound == code && user == "" {
		user = boundUser
	}

	var (
		remaining int
		now       time.Time
	)
	err := o.locks.withRoom(code, func() error {
		if !o.Rooms.Has(code) {
			return errIgnored
		}
		sctx, cancel := o.storeCtx(ctx)
		defer cancel()
		if err := o.Store.RemoveUserFromRoom(sctx, code, user); err != nil {
			return wrapStore("remove member", code, err)
		}
		remaining, _ = o.Rooms.Remove(code, s.ID())
		s.Unbind(code)
		now = o.now()
		o.broadcast(code, codec.NewLeft(code, user, remaining, now))
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("module", "app.orch").Str("sid", string(s.ID())).Str("room", string(code)).Str("user", string(user)).Int("remaining", remaining).Msg("left")
	o.publish(ctx, domain.RoomEvent{Kind: domain.EventMemberLeft, RoomCode: code, UserID: user, UserCount: remaining, At: now})
	return nil
}

// boundTo is where a session was bound when a flow started.
type boundTo struct {
	code domain.RoomCode
	user domain.UserID
	ok   bool
}

func bindingOf(s core.Session) boundTo {
	code, user, ok := s.Binding()
	return boundTo{code: code, user: user, ok: ok}
}

// leavePrevious detaches s from prev after it moved to code. Called with
// no room lock held.
func (o *Orchestrator) leavePrevious(ctx context.Context, s core.Session, prev boundTo, code domain.RoomCode) {
	if !prev.ok || prev.code == code {
		return
	}
	o.detach(ctx, s, prev.code, prev.user)
}

// detach drops s from the live set of code and tells whoever is left.
// Durable membership is untouched.
func (o *Orchestrator) detach(ctx context.Context, s core.Session, code domain.RoomCode, user domain.UserID) {
	var (
		remaining int
		removed   bool
		now       time.Time
	)
	_ = o.locks.withRoom(code, func() error {
		remaining, removed = o.Rooms.Remove(code, s.ID())
		s.Unbind(code)
		if removed {
			now = o.now()
			o.broadcast(code, codec.NewLeft(code, user, remaining, now))
		}
		return nil
	})
	if removed {
		o.publish(ctx, domain.RoomEvent{Kind: domain.EventMemberLeft, RoomCode: code, UserID: user, UserCount: remaining, At: now})
	}
}

// createRoom allocates a fresh code, records the room with its creator
// and a system notice, acks, then runs the regular join flow.
func (o *Orchestrator) createRoom(ctx context.Context, s core.Session, in codec.Inbound) error {
	if strings.TrimSpace(in.RoomName) == "" {
		return reject(codec.MsgRoomNameRequired)
	}
	user := domain.UserID(in.UserID)
	prev := bindingOf(s)

	room, err := o.allocateRoom(ctx, domain.RoomParams{Name: in.RoomName, Description: in.Message})
	if errors.Is(err, errNoFreeCode) {
		log.Error().Err(err).Str("module", "app.orch").Int("attempts", o.codeAttempts).Msg("room code space exhausted")
		return reject(codec.MsgNoFreeCode)
	}
	if err != nil {
		return err
	}
	code := room.Code

	var (
		count int
		now   time.Time
	)
	err = o.locks.withRoom(code, func() error {
		sctx, cancel := o.storeCtx(ctx)
		defer cancel()
		if err := o.Store.AddUserToRoom(sctx, code, user); err != nil {
			return wrapStore("add creator", code, err)
		}
		if _, err := o.Store.CreateMessage(sctx, code, domain.RoomCreatedNotice(user)); err != nil {
			return wrapStore("system notice", code, err)
		}
		count = o.Rooms.Add(code, s)
		s.Bind(code, user)
		now = o.now()
		o.deliver(code, s, codec.NewCreateRoomAck(room, count, now))
		return nil
	})
	if err != nil {
		return err
	}
	o.leavePrevious(ctx, s, prev, code)

	log.Info().Str("module", "app.orch").Str("sid", string(s.ID())).Str("room", string(code)).Str("user", string(user)).Str("name", room.Name).Msg("room created")
	o.publish(ctx, domain.RoomEvent{Kind: domain.EventRoomCreated, RoomCode: code, UserID: user, Content: room.Name, UserCount: count, At: now})

	return o.enter(ctx, s, room, user)
}

// allocateRoom draws codes until one is free in the store. A duplicate at
// insert time counts as a collision.
func (o *Orchestrator) allocateRoom(ctx context.Context, p domain.RoomParams) (*domain.Room, error) {
	for i := 0; i < o.codeAttempts; i++ {
		p.Code = o.newCode()
		room, err := o.tryCreate(ctx, p)
		if errors.Is(err, domain.ErrRoomExists) {
			continue
		}
		return room, err
	}
	return nil, errNoFreeCode
}

func (o *Orchestrator) tryCreate(ctx context.Context, p domain.RoomParams) (*domain.Room, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	_, err := o.Store.GetRoomByCode(sctx, p.Code)
	switch {
	case err == nil:
		return nil, domain.ErrRoomExists
	case !errors.Is(err, domain.ErrRoomNotFound):
		return nil, wrapStore("check code", p.Code, err)
	}
	room, err := o.Store.CreateRoom(sctx, p)
	if err != nil && !errors.Is(err, domain.ErrRoomExists) {
		return nil, wrapStore("create room", p.Code, err)
	}
	return room, err
}
