package domain

import (
	"math/big"
	"time"
)

// WalletCategory is the behavioral category assigned to a holder.
type WalletCategory string

const (
	CategoryExchange       WalletCategory = "Exchange"
	CategoryFoundation     WalletCategory = "Foundation"
	CategoryInvestor       WalletCategory = "Investor"
	CategoryTeam           WalletCategory = "Team"
	CategoryCommunity      WalletCategory = "Community"
	CategoryDex            WalletCategory = "Dex"
	CategoryInfrastructure WalletCategory = "Infrastructure"
	CategoryMarketMaker    WalletCategory = "MarketMaker"
)

// AllCategories lists every wallet category in report order.
var AllCategories = []WalletCategory{
	CategoryExchange,
	CategoryFoundation,
	CategoryInvestor,
	CategoryTeam,
	CategoryCommunity,
	CategoryDex,
	CategoryInfrastructure,
	CategoryMarketMaker,
}

// String returns the string representation of WalletCategory.
func (c WalletCategory) String() string {
	return string(c)
}

// WalletMetadata is the classification context attached to a holder row.
type WalletMetadata struct {
	AccountType   AccountType
	Confidence    Confidence
	SubType       *string
	Reasoning     []string
	Label         *string
	Tags          []string
	FundedBy      *FundedBy
	ActiveAgeDays *int
	OwnerOffCurve bool
}

// WalletClassification is one classified holder.
type WalletClassification struct {
	Owner             string
	Category          WalletCategory
	RawBalance        *big.Int
	UIBalance         float64
	SupplyPct         float64
	FirstTxAt         time.Time
	LastTxAt          time.Time
	TxCount           int
	HasSold           bool
	DiamondHand       bool // never sold and age >= 90 days
	LongTermNoOutflow bool // age >= 180 days and no outflow in the last 180 days
	Metadata          WalletMetadata
}
