package signal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverConn returns the server side of a fresh websocket pair.
func serverConn(t *testing.T) *websocket.Conn {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- ws
	}))
	t.Cleanup(srv.Close)

	client, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = client.Close() })

	select {
	case ws := <-conns:
		return ws
	case <-time.After(3 * time.Second):
		t.Fatal("no server connection")
		return nil
	}
}

func TestWsSignalConnQueueAndClose(t *testing.T) {
	c := newWsSignalConn(serverConn(t), 1)

	require.NoError(t, c.TrySend(core.Frame("a")))
	assert.ErrorIs(t, c.TrySend(core.Frame("b")), core.ErrBackpressure)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Send(ctx, core.Frame("b")), context.DeadlineExceeded)

	select {
	case <-c.Done():
		t.Fatal("done before close")
	default:
	}

	c.Close()
	c.Close()
	select {
	case <-c.Done():
	default:
		t.Fatal("done not closed")
	}
	assert.ErrorIs(t, c.TrySend(core.Frame("c")), core.ErrClosed)
	assert.ErrorIs(t, c.Send(context.Background(), core.Frame("c")), core.ErrClosed)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://any.example", want: true},
		{name: "no origin header", allowed: []string{"https://chat.example"}, origin: "", want: true},
		{name: "listed", allowed: []string{"https://chat.example"}, origin: "https://chat.example", want: true},
		{name: "not listed", allowed: []string{"https://chat.example"}, origin: "https://evil.example", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := NewSignalWSController(nil, nil, Options{AllowedOrigins: tt.allowed})
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, ctl.checkOrigin(r))
		})
	}
}

func TestInboundLimiter(t *testing.T) {
	var unlimited *InboundLimiter
	assert.True(t, unlimited.Allow())
	assert.Nil(t, NewInboundLimiter(0, 10))

	l := NewInboundLimiter(0.001, 2)
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
