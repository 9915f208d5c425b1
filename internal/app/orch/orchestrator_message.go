package orch

import (
	"context"

	"github.com/dkeye/Relay/internal/codec"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// message appends to history and fans out to the room's live set. The
// room is created on first reference; the sender need not be joined.
func (o *Orchestrator) message(ctx context.Context, _ core.Session, in codec.Inbound) error {
	code := domain.RoomCode(in.Room)
	if code == "" || in.Message == "" {
		return errIgnored
	}
	user := domain.UserID(in.UserID)

	var (
		msg *domain.Message
		res core.PublishResult
	)
	err := o.locks.withRoom(code, func() error {
		sctx, cancel := o.storeCtx(ctx)
		defer cancel()
		var err error
		msg, err = o.Store.CreateMessage(sctx, code, domain.MessageParams{
			UserID:  user,
			Content: in.Message,
			Type:    domain.MessageTypeChat,
		})
		if err != nil {
			return wrapStore("append message", code, err)
		}
		ts := in.Timestamp
		if ts == "" {
			ts = codec.FormatTime(msg.Timestamp)
		}
		res = o.broadcast(code, codec.NewChat(code, user, in.Message, ts))
		return nil
	})
	if err != nil {
		return err
	}

	o.publish(ctx, domain.RoomEvent{
		Kind:      domain.EventMessageCreated,
		RoomCode:  code,
		UserID:    user,
		Content:   in.Message,
		UserCount: res.SendTo + len(res.Dropped),
		At:        msg.Timestamp,
	})
	return nil
}
