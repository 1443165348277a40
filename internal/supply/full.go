package supply

import (
	"context"
	"math/big"

	"solana-holder-lab/internal/classify"
	"solana-holder-lab/internal/domain"
)

// FullSplit classifies every owner of the enumerated accounts. Metadata is
// looked up for at most MetadataCap owners at or above the balance threshold;
// the rest are classified without metadata. There is no unknown remainder:
// on-chain is total supply minus CEX and DEX.
func (p *Pipeline) FullSplit(ctx context.Context, mint *domain.MintInfo, accounts []domain.HolderRecord) (*domain.SupplySplit, error) {
	owners := AggregateOwners(accounts)
	threshold := MinBalanceRaw(mint.RawSupply, p.minBalanceBps)

	b := newBuckets(mint.Decimals)
	lookups, skipped := 0, 0

	for _, ob := range owners {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var meta *domain.AccountMetadata
		switch {
		case ob.RawBalance.Cmp(threshold) < 0:
			skipped++
		case lookups < p.metadataCap:
			meta = p.Lookup(context.WithoutCancel(ctx), ob.Owner)
			lookups++
		}

		cls := classify.ClassifyAccount(meta)
		b.add(ob.RawBalance, meta, cls)
	}

	enumerated := b.sum()
	if enumerated.Cmp(mint.RawSupply) != 0 {
		p.logger.Warn().
			Str("enumerated", enumerated.String()).
			Str("supply", mint.RawSupply.String()).
			Msg("enumerated balances differ from supply, on-chain bucket absorbs the difference")
	}

	onchain := new(big.Int).Sub(mint.RawSupply, b.cex)
	onchain.Sub(onchain, b.dex)
	if onchain.Sign() < 0 {
		onchain.SetInt64(0)
	}
	b.onchain = onchain

	split := b.split(domain.SplitKindFull, mint, nil)
	split.AccountsSampled = len(accounts)
	split.OwnersScanned = len(owners)
	split.MetadataLookups = lookups
	split.SkippedBelowThreshold = skipped

	p.logger.Info().
		Int("owners", len(owners)).
		Int("lookups", lookups).
		Int("skipped", skipped).
		Float64("cex_pct", split.CEXPct).
		Float64("dex_pct", split.DEXPct).
		Msg("full ownership split computed")

	return split, nil
}
