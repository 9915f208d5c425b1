package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Relay/internal/codec"
	"github.com/dkeye/Relay/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sess core.Session, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sess.ID())).Msg("writePump ctx done")
			ctl.closeGracefully(c, websocket.CloseGoingAway, "")
			return
		case <-c.Done():
			return
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sess.ID())).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID())).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := ctl.ping(c); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID())).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sess core.Session, c *WsSignalConn) {
	sid := sess.ID()
	defer func() {
		cancel()
		ctl.Orch.Disconnect(context.WithoutCancel(ctx), sess)
		ctl.Sessions.Unbind(sid)
		c.Close()
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
	}()

	if err := ctl.armKeepalive(c); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump arm keepalive")
		return
	}
	limiter := NewInboundLimiter(ctl.opts.RatePerSecond, ctl.opts.RateBurst)

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) && !errors.Is(err, websocket.ErrCloseSent) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		if msgType != websocket.TextMessage {
			ctl.sendJSON(c, codec.NewError(codec.MsgInvalidFormat))
			continue
		}
		if !limiter.Allow() {
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("rate limited")
			ctl.sendJSON(c, codec.NewError(codec.MsgRateLimited))
			continue
		}
		ctl.Orch.Handle(ctx, sess, data)
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := codec.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
