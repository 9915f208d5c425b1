// Package metrics exposes relay activity as Prometheus collectors.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Recorder implements core.Recorder.
type Recorder struct {
	events  *prometheus.CounterVec
	sent    prometheus.Counter
	dropped prometheus.Counter
}

// New registers the relay collectors on reg. rooms and conns are sampled
// at scrape time.
func New(reg prometheus.Registerer, rooms, conns func() int) *Recorder {
	r := &Recorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound client events by type and outcome.",
		}, []string{"type", "outcome"}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_frames_sent_total",
			Help:      "Frames queued to room members by broadcasts.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_frames_dropped_total",
			Help:      "Broadcast frames refused by a full or closed member queue.",
		}),
	}
	reg.MustRegister(
		r.events,
		r.sent,
		r.dropped,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_rooms",
			Help:      "Rooms with at least one connected member.",
		}, func() float64 { return float64(rooms()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Open websocket connections.",
		}, func() float64 { return float64(conns()) }),
	)
	return r
}

func (r *Recorder) EventHandled(kind, outcome string) {
	r.events.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) Broadcast(sent, dropped int) {
	r.sent.Add(float64(sent))
	r.dropped.Add(float64(dropped))
}

// Handler serves the exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
