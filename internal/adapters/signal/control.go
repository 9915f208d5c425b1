package signal

import (
	"time"

	"github.com/gorilla/websocket"
)

// armKeepalive bounds inbound frames and extends the read deadline on
// every pong.
func (ctl *SignalWSController) armKeepalive(c *WsSignalConn) error {
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	if err := c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait)); err != nil {
		return err
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})
	return nil
}

func (ctl *SignalWSController) ping(c *WsSignalConn) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (ctl *SignalWSController) closeGracefully(c *WsSignalConn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(ctl.opts.WriteWait))
}
