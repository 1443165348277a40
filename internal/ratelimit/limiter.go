// Package ratelimit throttles calls to external providers.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"solana-holder-lab/internal/observability"
)

// Design values for provider throttling.
const (
	DefaultHistoryInterval = 200 * time.Millisecond
	DefaultMetadataBatch   = 10
	DefaultMetadataWindow  = 200 * time.Millisecond
)

// Limiter blocks until the caller may issue the next external request.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket is a named Limiter backed by a token bucket.
type TokenBucket struct {
	name string
	lim  *rate.Limiter
}

// NewInterval allows one request per interval.
func NewInterval(name string, interval time.Duration) *TokenBucket {
	return &TokenBucket{name: name, lim: rate.NewLimiter(rate.Every(interval), 1)}
}

// NewBatch allows batch requests per window, refilled continuously.
func NewBatch(name string, batch int, window time.Duration) *TokenBucket {
	if batch <= 0 {
		batch = 1
	}
	return &TokenBucket{name: name, lim: rate.NewLimiter(rate.Every(window/time.Duration(batch)), batch)}
}

// Unlimited never blocks.
func Unlimited(name string) *TokenBucket {
	return &TokenBucket{name: name, lim: rate.NewLimiter(rate.Inf, 0)}
}

// Wait blocks until a token is available or ctx is done.
func (b *TokenBucket) Wait(ctx context.Context) error {
	start := time.Now()
	err := b.lim.Wait(ctx)
	observability.RecordLimiterWait(b.name, time.Since(start).Seconds())
	return err
}

// Name returns the limiter name used in metrics.
func (b *TokenBucket) Name() string {
	return b.name
}

var _ Limiter = (*TokenBucket)(nil)
