// Package history reduces an owner's transfer activity to a behavioral summary.
package history

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/observability"
	"solana-holder-lab/internal/ratelimit"
	"solana-holder-lab/internal/solscan"
)

// Pagination bounds.
const (
	PageSize   = 100
	MaxRecords = 1000
)

// TransferProvider returns paginated transfer history for an owner.
type TransferProvider interface {
	GetTransfers(ctx context.Context, address string, q solscan.TransferQuery) ([]domain.TransferRecord, error)
}

// Analyzer pages transfer history and summarizes it.
type Analyzer struct {
	provider TransferProvider
	limiter  ratelimit.Limiter
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures Analyzer.
type Option func(*Analyzer)

// WithLimiter sets the limiter waited on between pages.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(a *Analyzer) {
		a.limiter = l
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithClock sets a custom clock function (for testing).
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates an Analyzer over provider.
func NewAnalyzer(provider TransferProvider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: provider,
		limiter:  ratelimit.NewInterval("history", ratelimit.DefaultHistoryInterval),
		logger:   log.With().Str("component", "history").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze summarizes the transfer history of owner, optionally restricted to tokenMint.
// Provider failures yield the empty summary; they are never returned.
func (a *Analyzer) Analyze(ctx context.Context, owner, tokenMint string) domain.WalletHistorySummary {
	now := a.now()

	records, err := a.collect(ctx, owner, tokenMint)
	if err != nil {
		a.logger.Warn().Err(err).Str("owner", owner).Msg("transfer history unavailable")
		observability.RecordProviderError("solscan", "transfers")
		return domain.EmptyHistory(now)
	}

	return Summarize(records, now)
}

// collect pages until a short page or MaxRecords.
func (a *Analyzer) collect(ctx context.Context, owner, tokenMint string) ([]domain.TransferRecord, error) {
	var all []domain.TransferRecord

	for page := 1; ; page++ {
		// Every page takes a token, so consecutive requests are at least one interval apart.
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		batch, err := a.provider.GetTransfers(ctx, owner, solscan.TransferQuery{
			TokenMint: tokenMint,
			Page:      page,
			PageSize:  PageSize,
			SortDesc:  true,
		})
		if err != nil {
			return nil, err
		}
		observability.RecordHistoryPage()

		all = append(all, batch...)
		if len(batch) < PageSize || len(all) >= MaxRecords {
			break
		}
	}

	if len(all) > MaxRecords {
		all = all[:MaxRecords]
	}
	return all, nil
}

// Summarize reduces transfer records to a WalletHistorySummary.
// An empty record set yields the empty summary at now.
func Summarize(records []domain.TransferRecord, now time.Time) domain.WalletHistorySummary {
	if len(records) == 0 {
		return domain.EmptyHistory(now)
	}

	sorted := make([]domain.TransferRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BlockTime < sorted[j].BlockTime
	})

	var inflow, outflow float64
	var lastOutflow int64
	hasOutflow := false

	for i := range sorted {
		r := &sorted[i]
		switch r.Flow {
		case domain.FlowIn:
			inflow += r.UIAmount()
		case domain.FlowOut:
			outflow += r.UIAmount()
			if !hasOutflow || r.BlockTime > lastOutflow {
				lastOutflow = r.BlockTime
				hasOutflow = true
			}
		}
	}

	summary := domain.WalletHistorySummary{
		FirstTxAt: time.Unix(sorted[0].BlockTime, 0).UTC(),
		LastTxAt:  time.Unix(sorted[len(sorted)-1].BlockTime, 0).UTC(),
		TxCount:   len(sorted),
		HasSold:   outflow > 0,
		NetFlow:   inflow - outflow,
	}
	if hasOutflow {
		t := time.Unix(lastOutflow, 0).UTC()
		summary.LastOutflowAt = &t
	}

	return summary
}
