// Package orch is the relay engine: it interprets client events, applies
// them to the store and the live room registry, and fans the results out.
package orch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/codec"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStoreTimeout = 5 * time.Second
	DefaultReplyTimeout = 5 * time.Second
	DefaultCodeAttempts = 10
)

// Outcomes reported to the Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomePanic    = "panic"
)

// errIgnored marks events that are dropped without any reply.
var errIgnored = errors.New("event ignored")

// rejection is a validation failure reported to the sender verbatim.
type rejection struct{ msg string }

func (r *rejection) Error() string { return r.msg }

func reject(msg string) error { return &rejection{msg: msg} }

type Orchestrator struct {
	Store     core.Store
	Rooms     core.Registry
	Policy    app.Policy
	Recorder  core.Recorder
	Publisher core.Publisher

	newCode      app.CodeGenerator
	codeAttempts int
	storeTimeout time.Duration
	replyTimeout time.Duration
	now          func() time.Time
	locks        *roomLocks
}

type Option func(*Orchestrator)

func WithPolicy(p app.Policy) Option { return func(o *Orchestrator) { o.Policy = p } }

func WithRecorder(r core.Recorder) Option { return func(o *Orchestrator) { o.Recorder = r } }

func WithPublisher(p core.Publisher) Option { return func(o *Orchestrator) { o.Publisher = p } }

// WithTimeouts bounds each store call and each direct reply.
func WithTimeouts(store, reply time.Duration) Option {
	return func(o *Orchestrator) {
		if store > 0 {
			o.storeTimeout = store
		}
		if reply > 0 {
			o.replyTimeout = reply
		}
	}
}

func WithCodeGenerator(gen app.CodeGenerator, attempts int) Option {
	return func(o *Orchestrator) {
		o.newCode = gen
		if attempts > 0 {
			o.codeAttempts = attempts
		}
	}
}

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

func New(store core.Store, rooms core.Registry, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		Store:        store,
		Rooms:        rooms,
		Policy:       app.SimplePolicy{},
		Recorder:     core.NopRecorder{},
		Publisher:    core.NopPublisher{},
		codeAttempts: DefaultCodeAttempts,
		storeTimeout: DefaultStoreTimeout,
		replyTimeout: DefaultReplyTimeout,
		now:          time.Now,
		locks:        newRoomLocks(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.newCode == nil {
		gen, err := app.NewCodeGenerator(app.DefaultCodeLength)
		if err != nil {
			return nil, err
		}
		o.newCode = gen
	}
	return o, nil
}

// Handle processes one inbound frame from s. It never panics and never
// returns an error: every failure becomes an error event for s.
func (o *Orchestrator) Handle(ctx context.Context, s core.Session, data []byte) {
	kind := "unknown"
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.orch").Str("sid", string(s.ID())).Str("type", kind).
				Interface("panic", r).Bytes("stack", debug.Stack()).Msg("event handler panic")
			o.Recorder.EventHandled(kind, OutcomePanic)
		}
	}()

	in, err := codec.Decode(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "app.orch").Str("sid", string(s.ID())).Msg("bad event")
		o.replyError(ctx, s, codec.MsgInvalidFormat)
		o.Recorder.EventHandled(kind, OutcomeRejected)
		return
	}
	kind = string(in.Type)

	switch in.Type {
	case codec.TypeJoin:
		err = o.join(ctx, s, in)
	case codec.TypeLeave:
		err = o.leave(ctx, s, in)
	case codec.TypeMessage:
		err = o.message(ctx, s, in)
	case codec.TypeCreateRoom:
		err = o.createRoom(ctx, s, in)
	}
	o.Recorder.EventHandled(kind, o.settle(ctx, s, kind, err))
}

// Disconnect is the implicit leave for a closed connection. The durable
// membership row is kept.
func (o *Orchestrator) Disconnect(ctx context.Context, s core.Session) {
	code, user, ok := s.Binding()
	if !ok {
		return
	}
	o.detach(ctx, s, code, user)
	log.Info().Str("module", "app.orch").Str("sid", string(s.ID())).Str("room", string(code)).Str("user", string(user)).Msg("disconnected")
}

func (o *Orchestrator) settle(ctx context.Context, s core.Session, kind string, err error) string {
	var rj *rejection
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, errIgnored):
		return OutcomeIgnored
	case errors.As(err, &rj):
		o.replyError(ctx, s, rj.msg)
		return OutcomeRejected
	default:
		log.Error().Err(err).Str("module", "app.orch").Str("sid", string(s.ID())).Str("type", kind).Msg("event failed")
		o.replyError(ctx, s, codec.MsgStorage)
		return OutcomeError
	}
}

func (o *Orchestrator) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.storeTimeout)
}

func encode(v any) core.Frame {
	b, err := codec.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("encode")
		return nil
	}
	return b
}

// reply waits for room on the sender's own queue, bounded by the reply
// timeout. It must not be called while holding a room lock.
func (o *Orchestrator) reply(ctx context.Context, s core.Session, v any) {
	frame := encode(v)
	if frame == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, o.replyTimeout)
	defer cancel()
	if err := s.Signal().Send(rctx, frame); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("sid", string(s.ID())).Msg("reply not delivered")
	}
}

func (o *Orchestrator) replyError(ctx context.Context, s core.Session, msg string) {
	o.reply(ctx, s, codec.NewError(msg))
}

// deliver enqueues a direct frame without waiting. Used under a room lock,
// so a full queue is handled like a dropped broadcast.
func (o *Orchestrator) deliver(code domain.RoomCode, s core.Session, v any) {
	frame := encode(v)
	if frame == nil {
		return
	}
	if err := s.Signal().TrySend(frame); err != nil {
		o.backpressure(code, []core.Session{s})
	}
}

// broadcast fans v out to the room's current live set.
func (o *Orchestrator) broadcast(code domain.RoomCode, v any) core.PublishResult {
	frame := encode(v)
	if frame == nil {
		return core.PublishResult{}
	}
	res := o.Rooms.Broadcast(code, frame)
	o.Recorder.Broadcast(res.SendTo, len(res.Dropped))
	o.backpressure(code, res.Dropped)
	return res
}

func (o *Orchestrator) backpressure(code domain.RoomCode, slow []core.Session) {
	if o.Policy == nil {
		return
	}
	for _, m := range slow {
		switch o.Policy.OnBackPressure(code, m) {
		case app.KickMember:
			log.Warn().Str("module", "app.orch").Str("room", string(code)).Str("sid", string(m.ID())).Msg("kicking slow member")
			m.Signal().Close()
		case app.DropFrame, app.NoAction:
			log.Debug().Str("module", "app.orch").Str("room", string(code)).Str("sid", string(m.ID())).Msg("frame dropped")
		}
	}
}

func (o *Orchestrator) publish(ctx context.Context, ev domain.RoomEvent) {
	pctx, cancel := o.storeCtx(ctx)
	defer cancel()
	if err := o.Publisher.Publish(pctx, ev); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("kind", string(ev.Kind)).Str("room", string(ev.RoomCode)).Msg("publish event")
	}
}

func wrapStore(op string, code domain.RoomCode, err error) error {
	return fmt.Errorf("%s %s: %w", op, code, err)
}
