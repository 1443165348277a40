// Package enrich resolves off-chain account metadata through a layered cache.
package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/observability"
	"solana-holder-lab/internal/ratelimit"
	"solana-holder-lab/internal/storage"
)

// DefaultTTL is how long a persisted lookup stays fresh.
const DefaultTTL = 7 * 24 * time.Hour

// Source returns off-chain metadata for an address, or nil when none exists.
type Source interface {
	GetAccountMetadata(ctx context.Context, address string) (*domain.AccountMetadata, error)
}

// CachedSource fronts a Source with a per-run memory cache and an optional
// persistent store. Provider calls go through the limiter; cache hits do not.
type CachedSource struct {
	provider Source
	store    storage.AccountLabelStore
	limiter  ratelimit.Limiter
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	mem      map[string]*domain.AccountLabelRecord
	apiCalls int
}

// Option configures CachedSource.
type Option func(*CachedSource)

// WithStore sets the persistent label store.
func WithStore(s storage.AccountLabelStore) Option {
	return func(c *CachedSource) {
		c.store = s
	}
}

// WithLimiter sets the limiter waited on before each provider call.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *CachedSource) {
		c.limiter = l
	}
}

// WithTTL sets the freshness window of persisted records.
func WithTTL(d time.Duration) Option {
	return func(c *CachedSource) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *CachedSource) {
		c.logger = l
	}
}

// WithClock sets a custom clock function (for testing).
func WithClock(now func() time.Time) Option {
	return func(c *CachedSource) {
		c.now = now
	}
}

// NewCachedSource creates a CachedSource over provider.
func NewCachedSource(provider Source, opts ...Option) *CachedSource {
	c := &CachedSource{
		provider: provider,
		limiter:  ratelimit.NewBatch("metadata", ratelimit.DefaultMetadataBatch, ratelimit.DefaultMetadataWindow),
		ttl:      DefaultTTL,
		logger:   log.With().Str("component", "enrich").Logger(),
		now:      time.Now,
		mem:      make(map[string]*domain.AccountLabelRecord),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAccountMetadata returns metadata for address from memory, the store, or the provider.
// Provider errors are returned and not cached.
func (c *CachedSource) GetAccountMetadata(ctx context.Context, address string) (*domain.AccountMetadata, error) {
	c.mu.Lock()
	rec, ok := c.mem[address]
	c.mu.Unlock()
	if ok {
		observability.RecordMetadataLookup("memory")
		return rec.Metadata(), nil
	}

	if rec := c.fromStore(ctx, address); rec != nil {
		c.remember(rec)
		observability.RecordMetadataLookup("cache")
		return rec.Metadata(), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	meta, err := c.provider.GetAccountMetadata(ctx, address)
	c.mu.Lock()
	c.apiCalls++
	c.mu.Unlock()
	observability.RecordMetadataLookup("api")
	if err != nil {
		return nil, err
	}

	rec = domain.NewAccountLabelRecord(address, meta, c.now().UnixMilli())
	c.remember(rec)

	if c.store != nil {
		if err := c.store.Upsert(ctx, rec); err != nil {
			c.logger.Warn().Err(err).Str("address", address).Msg("persist account label failed")
		}
	}

	return rec.Metadata(), nil
}

// fromStore returns a fresh persisted record, or nil.
func (c *CachedSource) fromStore(ctx context.Context, address string) *domain.AccountLabelRecord {
	if c.store == nil {
		return nil
	}

	rec, err := c.store.GetByAddress(ctx, address)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn().Err(err).Str("address", address).Msg("read account label failed")
		}
		return nil
	}

	if c.now().Sub(time.UnixMilli(rec.FetchedAt)) > c.ttl {
		return nil
	}
	return rec
}

func (c *CachedSource) remember(rec *domain.AccountLabelRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[rec.Address] = rec
}

// APICalls returns the number of provider calls made so far.
func (c *CachedSource) APICalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiCalls
}

var _ Source = (*CachedSource)(nil)
