package transport

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Throttle keeps one token bucket per vendor host.
type Throttle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewThrottle returns nil, which never waits, when rps is not positive.
func NewThrottle(rps float64, burst int) *Throttle {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: map[string]*rate.Limiter{},
	}
}

// Wait blocks until host may be called or ctx is done.
func (t *Throttle) Wait(ctx context.Context, host string) error {
	if t == nil {
		return nil
	}
	return t.limiter(host).Wait(ctx)
}

func (t *Throttle) limiter(host string) *rate.Limiter {
	host = strings.ToLower(strings.TrimSpace(host))
	t.mu.Lock()
	defer t.mu.Unlock()
	limiter, ok := t.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters[host] = limiter
	}
	return limiter
}
