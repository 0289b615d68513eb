// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles navigations so a county portal never sees more than a
// handful of page loads per second from this process, however many
// acquisitions are in flight.
type Limiter interface {
	// Wait blocks until a navigation to urlStr may proceed or ctx is done.
	Wait(ctx context.Context, urlStr string) error
}

// HostLimiter keeps one token bucket per host.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing requestsPerSecond navigations per
// host with the given burst.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2.0
	}
	if burst <= 0 {
		burst = 4
	}

	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the navigation may proceed
func (hl *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	host := hostOf(urlStr)
	if host == "" {
		// about:blank and friends are never throttled
		return nil
	}

	return hl.limiter(host).Wait(ctx)
}

// SetLimit overrides the rate for one host, e.g. a portal known to ban bursts
func (hl *HostLimiter) SetLimit(host string, requestsPerSecond float64, burst int) {
	host = strings.ToLower(host)

	hl.mu.Lock()
	defer hl.mu.Unlock()

	if limiter, exists := hl.limiters[host]; exists {
		limiter.SetLimit(rate.Limit(requestsPerSecond))
		limiter.SetBurst(burst)
		return
	}
	hl.limiters[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (hl *HostLimiter) limiter(host string) *rate.Limiter {
	hl.mu.RLock()
	limiter, exists := hl.limiters[host]
	hl.mu.RUnlock()

	if exists {
		return limiter
	}

	hl.mu.Lock()
	defer hl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := hl.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(hl.perHost, hl.burst)
	hl.limiters[host] = limiter
	return limiter
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
