package domain

import "time"

// HolderAnalysis is the merged result of one analysis run over a mint.
type HolderAnalysis struct {
	Mint        *MintInfo
	Slot        int64
	StartedAt   time.Time
	CompletedAt time.Time

	TopHolders *SupplySplit // nil if the largest-accounts query failed
	Full       *SupplySplit
	Lock       *LockBreakdown
	Holders    []WalletClassification // balance descending

	AccountsEnumerated int
	OwnersEnumerated   int
	Warnings           []string
}
