// Package ratelimit throttles outbound RPC calls with golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/fd1az/sizing-bot/internal/apperror"
)

// Limiter is a token bucket shared by every caller of one RPC endpoint.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows requestsPerSecond on average with bursts of burst.
// A non-positive rate disables limiting.
func New(requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// NewPerMinute allows requestsPerMinute with a burst of a tenth of that.
func NewPerMinute(requestsPerMinute int) *Limiter {
	return New(float64(requestsPerMinute)/60.0, requestsPerMinute/10)
}

// Wait blocks until a token is available. Cancellation is reported as
// CodeRateLimitExceeded so callers can tell throttling from RPC failures.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	return nil
}

// Allow reports whether an event may happen now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetRate updates the average rate.
func (l *Limiter) SetRate(requestsPerSecond float64) {
	l.limiter.SetLimit(rate.Limit(requestsPerSecond))
}
