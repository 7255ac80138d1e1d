// Package ratelimit throttles outgoing requests to SharePoint and Azure
// management endpoints so bulk scripts stay under service throttling limits.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter. A zero or negative rate disables limiting.
type Limiter struct {
	limiter *rate.Limiter
	rps     float64
}

// New creates a limiter allowing rps requests per second with a burst of one.
func New(rps float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		rps:     rps,
	}
}

// Enabled reports whether requests are being throttled.
func (l *Limiter) Enabled() bool {
	return l.limiter != nil
}

// RPS returns the configured requests per second, 0 when disabled.
func (l *Limiter) RPS() float64 {
	return l.rps
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed now without waiting.
func (l *Limiter) Allow() bool {
	if l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

// Reserve returns a reservation for one request, or nil when limiting is disabled.
func (l *Limiter) Reserve() *rate.Reservation {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Reserve()
}

func (l *Limiter) String() string {
	if l.limiter == nil {
		return "rate limiting disabled"
	}
	if l.rps < 1 {
		interval := time.Duration(float64(time.Second) / l.rps)
		return fmt.Sprintf("1 request per %s", interval)
	}
	return fmt.Sprintf("%.2f rps", l.rps)
}

// Policy returns an azcore pipeline policy that waits on the limiter before
// each attempt, retries included.
func (l *Limiter) Policy() policy.Policy {
	return limiterPolicy{l: l}
}

type limiterPolicy struct {
	l *Limiter
}

func (p limiterPolicy) Do(req *policy.Request) (*http.Response, error) {
	if err := p.l.Wait(req.Raw().Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return req.Next()
}
