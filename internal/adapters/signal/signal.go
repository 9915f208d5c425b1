package signal

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Options tunes every connection the controller accepts.
type Options struct {
	ReadLimit      int64
	SendBuffer     int
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	AllowedOrigins []string
	RatePerSecond  float64
	RateBurst      int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:      cfg.ReadLimit,
		SendBuffer:     cfg.SendBuffer,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		AllowedOrigins: cfg.AllowedOrigins,
		RatePerSecond:  cfg.Rate.PerSecond,
		RateBurst:      cfg.Rate.Burst,
	}
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Sessions *app.SessionRegistry

	opts     Options
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, sessions *app.SessionRegistry, opts Options) *SignalWSController {
	ctl := &SignalWSController{Orch: o, Sessions: sessions, opts: opts}
	ctl.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ctl.checkOrigin,
	}
	return ctl
}

func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(ctl.opts.AllowedOrigins, "*") {
		return true
	}
	if slices.Contains(ctl.opts.AllowedOrigins, origin) {
		return true
	}
	log.Warn().Str("module", "signal").Str("origin", origin).Msg("origin rejected")
	return false
}

// WsSignalConn is the send side of one websocket. Frames queue on send and
// are written by a single writer, which keeps per-connection order.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	done      chan struct{}
	closeOnce sync.Once
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
		done: make(chan struct{}),
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	select {
	case <-c.done:
		return core.ErrClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return core.ErrClosed
	default:
		return core.ErrBackpressure
	}
}

func (c *WsSignalConn) Send(ctx context.Context, f core.Frame) error {
	select {
	case <-c.done:
		return core.ErrClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return core.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is idempotent. The send queue is never closed; writers observe done.
func (c *WsSignalConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *WsSignalConn) Done() <-chan struct{} { return c.done }

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	sess := core.NewSession(sid, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Sessions.BindSignal(sess, cancel)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", token).Str("remote", c.ClientIP()).Msg("new WS connection")

	go ctl.writePump(ctx, sess, conn)
	go ctl.readPump(ctx, cancel, sess, conn)
}
