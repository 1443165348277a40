package domain

import (
	"math/big"
	"strings"
)

// Token account states as reported by the token program.
const (
	AccountStateInitialized   = "initialized"
	AccountStateFrozen        = "frozen"
	AccountStateUninitialized = "uninitialized"
)

// HolderRecord is one token account holding the analyzed mint.
type HolderRecord struct {
	TokenAccount  string
	Owner         string // resolved wallet; empty until resolved
	RawBalance    *big.Int
	UIBalance     float64
	Decimals      int
	State         string
	OwnerOffCurve bool // owner is a program-derived address
}

// IsFrozen reports whether the account state is frozen (case-insensitive).
func (h *HolderRecord) IsFrozen() bool {
	return strings.EqualFold(strings.TrimSpace(h.State), AccountStateFrozen)
}

// OwnerBalance is the aggregated balance of one owner across its token accounts.
type OwnerBalance struct {
	Owner         string
	RawBalance    *big.Int
	UIBalance     float64
	Decimals      int
	TokenAccounts []string
	OwnerOffCurve bool
}
