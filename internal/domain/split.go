package domain

// SplitKind identifies the supply split algorithm.
type SplitKind string

const (
	SplitKindTopHolders SplitKind = "top_holders"
	SplitKindFull       SplitKind = "full"
)

// VenueBalance is the balance held by one exchange venue.
type VenueBalance struct {
	Name    string
	Balance float64
	Pct     float64
}

// SupplySplit is a CEX / DEX / on-chain decomposition of total supply.
type SupplySplit struct {
	Kind             SplitKind
	TotalSupply      float64
	CEX              float64
	DEX              float64
	OnChain          float64
	UnknownRemainder float64 // always 0 for the full split
	CEXPct           float64
	DEXPct           float64
	OnChainPct       float64
	UnknownPct       float64
	CEXVenues        []VenueBalance // sorted by balance desc
	TopDEX           *string

	// Scan statistics
	AccountsSampled       int
	OwnersScanned         int
	MetadataLookups       int
	SkippedBelowThreshold int
}

// Bucketed returns CEX + DEX + OnChain + UnknownRemainder.
func (s *SupplySplit) Bucketed() float64 {
	return s.CEX + s.DEX + s.OnChain + s.UnknownRemainder
}
