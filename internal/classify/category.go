package classify

import (
	"math"
	"math/big"
	"time"

	"solana-holder-lab/internal/domain"
)

// Behavioral thresholds. Percentages are of total supply (0-100).
const (
	FoundationMinPct     = 5.0
	InvestorMinPct       = 1.0
	InvestorMaxTxCount   = 20
	InvestorMinAgeDays   = 180
	TeamMinPct           = 0.1
	TeamMaxTxCount       = 50
	ExchangeMinTxCount   = 1000
	ExchangeMinNetFlow   = 10_000_000
	MarketMakerMinTx     = 100
	MarketMakerFlowRatio = 0.10
	MarketMakerMinAge    = 30
	WhaleInvestorMinPct  = 0.5

	DiamondHandMinAgeDays = 90
	LongTermMinAgeDays    = 180
	LongTermNoOutflowDays = 180
)

// CategoryContext carries account type signals into Categorize.
type CategoryContext struct {
	Classification *domain.AccountClassification
	IsDex          bool
	IsCex          bool
}

// CategoryInput is the input of Categorize.
type CategoryInput struct {
	BalanceRaw *big.Int
	SupplyRaw  *big.Int
	Decimals   int
	History    domain.WalletHistorySummary
	Context    *CategoryContext
	Now        time.Time
}

// Categorize assigns the behavioral wallet category. The first matching rule wins:
// high-confidence labels, legacy flags, behavioral thresholds, then
// medium-confidence labels as tiebreak.
func Categorize(in CategoryInput) domain.WalletCategory {
	var cls *domain.AccountClassification
	if in.Context != nil {
		cls = in.Context.Classification
	}

	if cls != nil && cls.Confidence == domain.ConfidenceHigh {
		switch cls.Type {
		case domain.AccountTypeCEX:
			return domain.CategoryExchange
		case domain.AccountTypeDEX:
			return domain.CategoryDex
		case domain.AccountTypeBridge, domain.AccountTypeStaking,
			domain.AccountTypeProgramAuthority, domain.AccountTypeValidator:
			return domain.CategoryInfrastructure
		case domain.AccountTypeMarketMaker:
			return domain.CategoryMarketMaker
		}
	}

	if in.Context != nil {
		if in.Context.IsCex {
			return domain.CategoryExchange
		}
		if in.Context.IsDex {
			return domain.CategoryDex
		}
	}

	pct := domain.SupplyPct(in.BalanceRaw, in.SupplyRaw)
	h := in.History
	age := h.AgeDays(in.Now)
	netFlow := math.Abs(h.NetFlow)
	balance := domain.UIAmount(in.BalanceRaw, in.Decimals)

	switch {
	case pct >= FoundationMinPct && !h.HasSold:
		return domain.CategoryFoundation
	case pct >= InvestorMinPct && pct < FoundationMinPct &&
		h.TxCount < InvestorMaxTxCount && age > InvestorMinAgeDays:
		return domain.CategoryInvestor
	case pct >= TeamMinPct && pct < InvestorMinPct && !h.HasSold && h.TxCount < TeamMaxTxCount:
		return domain.CategoryTeam
	case h.TxCount > ExchangeMinTxCount || netFlow > ExchangeMinNetFlow:
		return domain.CategoryExchange
	case h.TxCount > MarketMakerMinTx && netFlow < MarketMakerFlowRatio*balance && age > MarketMakerMinAge:
		return domain.CategoryMarketMaker
	}

	if cls != nil && cls.Confidence == domain.ConfidenceMedium {
		switch cls.Type {
		case domain.AccountTypeWhale:
			if pct >= WhaleInvestorMinPct {
				return domain.CategoryInvestor
			}
			return domain.CategoryCommunity
		case domain.AccountTypeInstitutional, domain.AccountTypeBotTrader:
			return domain.CategoryMarketMaker
		}
	}

	return domain.CategoryCommunity
}

// WalletInput is the input of ClassifyWallet.
type WalletInput struct {
	Owner         string
	BalanceRaw    *big.Int
	Decimals      int
	Mint          *domain.MintInfo
	History       domain.WalletHistorySummary
	Metadata      *domain.AccountMetadata
	OwnerOffCurve bool
	Now           time.Time
}

// ClassifyWallet runs the account type and category stages for one holder.
func ClassifyWallet(in WalletInput) domain.WalletClassification {
	cls := ClassifyAccount(in.Metadata)

	var supplyRaw *big.Int
	if in.Mint != nil {
		supplyRaw = in.Mint.RawSupply
	}

	category := Categorize(CategoryInput{
		BalanceRaw: in.BalanceRaw,
		SupplyRaw:  supplyRaw,
		Decimals:   in.Decimals,
		History:    in.History,
		Context:    &CategoryContext{Classification: &cls},
		Now:        in.Now,
	})

	h := in.History
	age := h.AgeDays(in.Now)
	longTerm := age >= LongTermMinAgeDays &&
		(h.LastOutflowAt == nil || in.Now.Sub(*h.LastOutflowAt) >= LongTermNoOutflowDays*24*time.Hour)

	wc := domain.WalletClassification{
		Owner:             in.Owner,
		Category:          category,
		RawBalance:        in.BalanceRaw,
		UIBalance:         domain.UIAmount(in.BalanceRaw, in.Decimals),
		SupplyPct:         domain.SupplyPct(in.BalanceRaw, supplyRaw),
		FirstTxAt:         h.FirstTxAt,
		LastTxAt:          h.LastTxAt,
		TxCount:           h.TxCount,
		HasSold:           h.HasSold,
		DiamondHand:       !h.HasSold && age >= DiamondHandMinAgeDays,
		LongTermNoOutflow: longTerm,
		Metadata: domain.WalletMetadata{
			AccountType:   cls.Type,
			Confidence:    cls.Confidence,
			SubType:       cls.SubType,
			Reasoning:     cls.Reasoning,
			OwnerOffCurve: in.OwnerOffCurve,
		},
	}

	if in.Metadata != nil {
		wc.Metadata.Label = in.Metadata.Label
		wc.Metadata.Tags = in.Metadata.Tags
		wc.Metadata.FundedBy = in.Metadata.FundedBy
		wc.Metadata.ActiveAgeDays = in.Metadata.ActiveAgeDays
	}

	return wc
}
