package reporting

import (
	"time"

	"solana-holder-lab/internal/domain"
)

// Report is the holder classification report for one mint.
type Report struct {
	GeneratedAt time.Time

	Mint MintSection

	// Supply splits; TopHolders is nil when the largest-accounts query failed.
	TopHolders *domain.SupplySplit
	Full       *domain.SupplySplit

	Lock *domain.LockBreakdown

	// Holders sorted by balance desc
	Holders []HolderRow

	// Classification summaries, in category / account type report order
	ByCategory    []SummaryRow
	ByAccountType []SummaryRow

	Warnings []string
}

// MintSection describes the analyzed mint.
type MintSection struct {
	Address            string
	ProgramID          string
	Decimals           int
	Supply             float64
	RawSupply          string
	MintAuthority      string // empty if none
	FreezeAuthority    string // empty if none
	Slot               int64
	AccountsEnumerated int
	OwnersEnumerated   int
	Duration           time.Duration
}

// HolderRow is one classified holder.
type HolderRow struct {
	Address           string
	Category          string
	AccountType       string
	SubType           string
	Confidence        string
	Balance           float64
	Pct               float64
	TxCount           int
	FirstTxAt         time.Time
	LastTxAt          time.Time
	HasSold           bool
	DiamondHand       bool
	LongTermNoOutflow bool
	Label             string
	Tags              []string
	FundedBy          string
	OwnerOffCurve     bool
}

// SummaryRow aggregates holders sharing a category or account type.
type SummaryRow struct {
	Key          string
	Count        int
	TotalBalance float64
	Pct          float64 // of total supply
}
