package supply

import (
	"math/big"
	"sort"

	"solana-holder-lab/internal/classify"
	"solana-holder-lab/internal/domain"
)

// buckets accumulates raw balances by exchange bucket and venue.
type buckets struct {
	decimals  int
	cex       *big.Int
	dex       *big.Int
	onchain   *big.Int
	cexVenues map[string]*big.Int
	dexVenues map[string]*big.Int
}

func newBuckets(decimals int) *buckets {
	return &buckets{
		decimals:  decimals,
		cex:       new(big.Int),
		dex:       new(big.Int),
		onchain:   new(big.Int),
		cexVenues: make(map[string]*big.Int),
		dexVenues: make(map[string]*big.Int),
	}
}

// add assigns raw to the CEX, DEX or on-chain bucket by account type.
func (b *buckets) add(raw *big.Int, meta *domain.AccountMetadata, cls domain.AccountClassification) {
	switch {
	case classify.IsExchangeType(cls, false):
		b.cex.Add(b.cex, raw)
		addVenue(b.cexVenues, venueName(meta, cls), raw)
	case classify.IsExchangeType(cls, true):
		b.dex.Add(b.dex, raw)
		addVenue(b.dexVenues, venueName(meta, cls), raw)
	default:
		b.onchain.Add(b.onchain, raw)
	}
}

func (b *buckets) sum() *big.Int {
	s := new(big.Int).Add(b.cex, b.dex)
	return s.Add(s, b.onchain)
}

// split builds the SupplySplit. unknown is the raw remainder outside the sample.
func (b *buckets) split(kind domain.SplitKind, mint *domain.MintInfo, unknown *big.Int) *domain.SupplySplit {
	total := mint.Supply
	s := &domain.SupplySplit{
		Kind:        kind,
		TotalSupply: total,
		CEX:         domain.UIAmount(b.cex, b.decimals),
		DEX:         domain.UIAmount(b.dex, b.decimals),
		OnChain:     domain.UIAmount(b.onchain, b.decimals),
	}
	if unknown != nil {
		s.UnknownRemainder = domain.UIAmount(unknown, b.decimals)
	}

	s.CEXPct = pctOf(s.CEX, total)
	s.DEXPct = pctOf(s.DEX, total)
	s.OnChainPct = pctOf(s.OnChain, total)
	s.UnknownPct = pctOf(s.UnknownRemainder, total)

	s.CEXVenues = b.venues(b.cexVenues, total)
	if dex := b.venues(b.dexVenues, total); len(dex) > 0 {
		top := dex[0].Name
		s.TopDEX = &top
	}
	return s
}

func (b *buckets) venues(m map[string]*big.Int, total float64) []domain.VenueBalance {
	out := make([]domain.VenueBalance, 0, len(m))
	for name, raw := range m {
		bal := domain.UIAmount(raw, b.decimals)
		out = append(out, domain.VenueBalance{Name: name, Balance: bal, Pct: pctOf(bal, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// venueName keys a venue by label, then sub-type, annotated when not high confidence.
func venueName(meta *domain.AccountMetadata, cls domain.AccountClassification) string {
	name := "unknown"
	switch {
	case meta != nil && meta.Label != nil && *meta.Label != "":
		name = *meta.Label
	case cls.SubType != nil:
		name = *cls.SubType
	}
	if cls.Confidence != domain.ConfidenceHigh {
		name += " (" + cls.Confidence.String() + ")"
	}
	return name
}

func addVenue(m map[string]*big.Int, name string, raw *big.Int) {
	v, ok := m[name]
	if !ok {
		v = new(big.Int)
		m[name] = v
	}
	v.Add(v, raw)
}

// pctOf returns part / total * 100, or 0 for a non-positive total.
func pctOf(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
