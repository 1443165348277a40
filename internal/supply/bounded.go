package supply

import (
	"context"
	"fmt"
	"math/big"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/observability"
)

// BoundedSplit estimates the split from the largest token accounts only.
// Supply outside the sample is reported as UnknownRemainder.
func (p *Pipeline) BoundedSplit(ctx context.Context, mint *domain.MintInfo, topN int) (*domain.SupplySplit, error) {
	if topN <= 0 || topN > DefaultTopN {
		topN = DefaultTopN
	}

	largest, err := p.chain.GetLargestTokenAccounts(ctx, mint.Address)
	if err != nil {
		return nil, fmt.Errorf("largest token accounts: %w", err)
	}
	if len(largest) > topN {
		largest = largest[:topN]
	}

	b := newBuckets(mint.Decimals)
	lookups := 0

	for _, acct := range largest {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// A started account runs to completion; cancellation takes effect at the next one.
		actx := context.WithoutCancel(ctx)

		owner, err := p.chain.GetOwnerOfTokenAccount(actx, acct.Address)
		if err != nil {
			p.logger.Warn().Err(err).Str("account", acct.Address).Msg("owner resolution failed, using token account")
			observability.RecordProviderError("solana", "getAccountInfo")
			owner = acct.Address
		}

		meta, cls := p.Classify(actx, owner)
		lookups++
		b.add(acct.RawAmount, meta, cls)
	}

	unknown := new(big.Int).Sub(mint.RawSupply, b.sum())
	if unknown.Sign() < 0 {
		unknown.SetInt64(0)
	}

	split := b.split(domain.SplitKindTopHolders, mint, unknown)
	split.AccountsSampled = len(largest)
	split.OwnersScanned = len(largest)
	split.MetadataLookups = lookups

	p.logger.Info().
		Int("accounts", len(largest)).
		Float64("cex_pct", split.CEXPct).
		Float64("dex_pct", split.DEXPct).
		Float64("unknown_pct", split.UnknownPct).
		Msg("top holders split computed")

	return split, nil
}
