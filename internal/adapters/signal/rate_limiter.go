package signal

import (
	"golang.org/x/time/rate"
)

// InboundLimiter meters events from one connection with a token bucket.
// A nil limiter allows everything.
type InboundLimiter struct {
	lim *rate.Limiter
}

func NewInboundLimiter(perSecond float64, burst int) *InboundLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &InboundLimiter{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *InboundLimiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.lim.Allow()
}
