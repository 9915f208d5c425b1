package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rooms, conns := 3, 7
	r := New(reg, func() int { return rooms }, func() int { return conns })

	r.EventHandled("join", "ok")
	r.EventHandled("join", "ok")
	r.EventHandled("join", "rejected")
	r.Broadcast(4, 1)
	r.Broadcast(2, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("join", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.events.WithLabelValues("join", "rejected")))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.sent))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dropped))

	expected := `
# HELP relay_live_rooms Rooms with at least one connected member.
# TYPE relay_live_rooms gauge
relay_live_rooms 3
# HELP relay_open_connections Open websocket connections.
# TYPE relay_open_connections gauge
relay_open_connections 7
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "relay_live_rooms", "relay_open_connections"))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := New(reg, func() int { return 0 }, func() int { return 0 })
	r.EventHandled("message", "ok")

	engine := gin.New()
	engine.GET("/metrics", Handler(reg))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `relay_events_total{outcome="ok",type="message"} 1`)
}
