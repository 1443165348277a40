package domain

import "math/big"

// FrozenAccountEntry is one on-chain frozen token account.
type FrozenAccountEntry struct {
	TokenAccount string
	Owner        string
	UIBalance    float64
	RawBalance   *big.Int
	Decimals     int
}

// LabeledOwnerEntry is an owner whose label or tags matched a lock keyword.
type LabeledOwnerEntry struct {
	Owner           string
	Label           string
	Tags            []string
	Balance         float64 // total UI balance across the owner's accounts
	FrozenPortion   float64 // already counted as frozen
	EffectiveLocked float64 // max(0, Balance - FrozenPortion)
	MatchedKeyword  string
}

// LockComponents splits the locked total by source.
type LockComponents struct {
	Frozen         float64
	LabeledVesting float64
}

// LockDetails holds the entries behind each component.
type LockDetails struct {
	FrozenAccounts []FrozenAccountEntry
	LabeledOwners  []LabeledOwnerEntry
}

// LockBreakdown is the locked vs circulating estimate.
type LockBreakdown struct {
	TotalSupply float64
	LockedTotal float64
	Circulating float64 // max(0, TotalSupply - LockedTotal)
	Components  LockComponents
	Details     LockDetails
	Notes       []string
}
