package domain

import (
	"math/big"
	"time"
)

// Flow is the direction of a transfer relative to the queried owner.
type Flow string

const (
	FlowIn  Flow = "in"
	FlowOut Flow = "out"
)

// TransferRecord is one token transfer from the transfer history provider.
type TransferRecord struct {
	Signature    string
	TokenAddress string
	Flow         Flow
	Amount       *big.Int // raw units
	Decimals     int
	BlockTime    int64 // unix seconds
}

// UIAmount returns the transfer amount in UI units.
func (r *TransferRecord) UIAmount() float64 {
	return UIAmount(r.Amount, r.Decimals)
}

// WalletHistorySummary is the behavioral summary of one owner's transfers.
// Computed per run, never cached.
type WalletHistorySummary struct {
	FirstTxAt     time.Time
	LastTxAt      time.Time
	TxCount       int
	HasSold       bool
	NetFlow       float64 // inflow - outflow, UI units
	LastOutflowAt *time.Time
}

// EmptyHistory returns the summary used when history is unavailable.
func EmptyHistory(now time.Time) WalletHistorySummary {
	return WalletHistorySummary{
		FirstTxAt: now,
		LastTxAt:  now,
	}
}

// AgeDays returns whole days elapsed between the first transaction and now.
func (s WalletHistorySummary) AgeDays(now time.Time) float64 {
	if s.FirstTxAt.IsZero() || now.Before(s.FirstTxAt) {
		return 0
	}
	return now.Sub(s.FirstTxAt).Hours() / 24
}
