// Package lock estimates locked and circulating supply.
package lock

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/enrich"
	"solana-holder-lab/internal/observability"
	"solana-holder-lab/internal/supply"
)

// Keywords mark an owner's label or tags as a vesting or lock contract.
// Matched on word boundaries, in order.
var Keywords = []string{
	"vesting", "vest", "timelock", "time lock", "lockup", "locked",
	"locker", "escrow", "cliff", "streamflow",
}

// Options configures an Estimator.
type Options struct {
	Metadata      enrich.Source
	MetadataCap   int
	MinBalanceBps int64
	Logger        *zerolog.Logger
}

// Estimator reconciles frozen balances with label-matched vesting owners.
type Estimator struct {
	metadata      enrich.Source
	metadataCap   int
	minBalanceBps int64
	logger        zerolog.Logger
}

// NewEstimator creates an Estimator. Zero option values take the supply scan defaults.
func NewEstimator(opts Options) *Estimator {
	e := &Estimator{
		metadata:      opts.Metadata,
		metadataCap:   opts.MetadataCap,
		minBalanceBps: opts.MinBalanceBps,
	}
	if e.metadataCap <= 0 {
		e.metadataCap = supply.DefaultMetadataCap
	}
	if e.minBalanceBps <= 0 {
		e.minBalanceBps = supply.DefaultMinBalanceBps
	}
	if opts.Logger != nil {
		e.logger = *opts.Logger
	} else {
		e.logger = log.With().Str("component", "lock").Logger()
	}
	return e
}

// Estimate computes the lock breakdown over every token account of mint.
func (e *Estimator) Estimate(ctx context.Context, mint *domain.MintInfo, accounts []domain.HolderRecord) (*domain.LockBreakdown, error) {
	b := &domain.LockBreakdown{
		TotalSupply: mint.Supply,
	}

	// Frozen scan
	frozenByOwner := make(map[string]float64)
	for _, acct := range accounts {
		if !acct.IsFrozen() {
			continue
		}
		b.Components.Frozen += acct.UIBalance
		frozenByOwner[acct.Owner] += acct.UIBalance
		b.Details.FrozenAccounts = append(b.Details.FrozenAccounts, domain.FrozenAccountEntry{
			TokenAccount: acct.TokenAccount,
			Owner:        acct.Owner,
			UIBalance:    acct.UIBalance,
			RawBalance:   acct.RawBalance,
			Decimals:     acct.Decimals,
		})
	}

	// Labeled vesting scan
	owners := supply.AggregateOwners(accounts)
	threshold := supply.MinBalanceRaw(mint.RawSupply, e.minBalanceBps)
	lookups := 0

	for _, ob := range owners {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ob.RawBalance.Cmp(threshold) < 0 {
			// Sorted descending; everything after is below too.
			break
		}
		if lookups >= e.metadataCap {
			break
		}

		meta := e.lookup(context.WithoutCancel(ctx), ob.Owner)
		lookups++
		if meta == nil {
			continue
		}

		kw, ok := MatchKeyword(meta)
		if !ok {
			continue
		}

		frozen := frozenByOwner[ob.Owner]
		entry := domain.LabeledOwnerEntry{
			Owner:           ob.Owner,
			Tags:            append([]string(nil), meta.Tags...),
			Balance:         ob.UIBalance,
			FrozenPortion:   frozen,
			EffectiveLocked: math.Max(0, ob.UIBalance-frozen),
			MatchedKeyword:  kw,
		}
		if meta.Label != nil {
			entry.Label = *meta.Label
		}
		b.Details.LabeledOwners = append(b.Details.LabeledOwners, entry)
		b.Components.LabeledVesting += entry.EffectiveLocked
	}

	b.LockedTotal = b.Components.Frozen + b.Components.LabeledVesting
	b.Circulating = math.Max(0, b.TotalSupply-b.LockedTotal)
	b.Notes = e.notes(mint, lookups)

	observability.UpdateLockGauges(b.LockedTotal, b.Circulating, b.TotalSupply)
	e.logger.Info().
		Float64("frozen", b.Components.Frozen).
		Float64("labeled_vesting", b.Components.LabeledVesting).
		Float64("circulating", b.Circulating).
		Int("labeled_owners", len(b.Details.LabeledOwners)).
		Msg("lock breakdown computed")

	return b, nil
}

func (e *Estimator) lookup(ctx context.Context, owner string) *domain.AccountMetadata {
	if e.metadata == nil {
		return nil
	}
	meta, err := e.metadata.GetAccountMetadata(ctx, owner)
	if err != nil {
		e.logger.Warn().Err(err).Str("owner", owner).Msg("account metadata unavailable")
		observability.RecordProviderError("solscan", "metadata")
		return nil
	}
	return meta
}

func (e *Estimator) notes(mint *domain.MintInfo, lookups int) []string {
	notes := []string{
		"Frozen balances come from on-chain token account state.",
		"Labeled vesting matches owner labels and tags against lock keywords; bespoke or unlabeled vesting contracts are not detected.",
		"Frozen balances held by a labeled vesting owner are counted once, under frozen.",
		fmt.Sprintf("Only owners holding at least %d bp of supply were inspected for labels (%d lookups, cap %d).",
			e.minBalanceBps, lookups, e.metadataCap),
	}
	if !mint.HasFreezeAuthority() {
		notes = append(notes, "Mint has no freeze authority; no further accounts can be frozen.")
	}
	return notes
}

// MatchKeyword returns the first lock keyword found in the label or tags.
func MatchKeyword(meta *domain.AccountMetadata) (string, bool) {
	if meta == nil {
		return "", false
	}

	var parts []string
	if meta.Label != nil {
		parts = append(parts, *meta.Label)
	}
	parts = append(parts, meta.Tags...)
	text := normalize(strings.Join(parts, " "))

	for _, kw := range Keywords {
		if strings.Contains(text, " "+kw+" ") {
			return kw, true
		}
	}
	return "", false
}

// normalize lowercases s and collapses non-alphanumerics to single spaces, padded.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(fields, " ") + " "
}
