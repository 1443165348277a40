package reporting

import (
	"errors"
	"math/big"
	"time"

	"solana-holder-lab/internal/domain"
)

// ErrIncompleteAnalysis is returned when the analysis lacks mint info.
var ErrIncompleteAnalysis = errors.New("analysis has no mint info")

// Generator builds reports from analysis results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report from a.
func (g *Generator) Generate(a *domain.HolderAnalysis) (*Report, error) {
	if a == nil || a.Mint == nil {
		return nil, ErrIncompleteAnalysis
	}

	holders := make([]HolderRow, 0, len(a.Holders))
	for i := range a.Holders {
		holders = append(holders, holderRow(&a.Holders[i]))
	}

	return &Report{
		GeneratedAt:   g.now(),
		Mint:          mintSection(a),
		TopHolders:    a.TopHolders,
		Full:          a.Full,
		Lock:          a.Lock,
		Holders:       holders,
		ByCategory:    summarizeByCategory(a.Holders, a.Mint),
		ByAccountType: summarizeByAccountType(a.Holders, a.Mint),
		Warnings:      a.Warnings,
	}, nil
}

func mintSection(a *domain.HolderAnalysis) MintSection {
	m := a.Mint
	s := MintSection{
		Address:            m.Address,
		ProgramID:          m.ProgramID,
		Decimals:           m.Decimals,
		Supply:             m.Supply,
		Slot:               a.Slot,
		AccountsEnumerated: a.AccountsEnumerated,
		OwnersEnumerated:   a.OwnersEnumerated,
	}
	if m.RawSupply != nil {
		s.RawSupply = m.RawSupply.String()
	}
	if m.MintAuthority != nil {
		s.MintAuthority = *m.MintAuthority
	}
	if m.FreezeAuthority != nil {
		s.FreezeAuthority = *m.FreezeAuthority
	}
	if !a.CompletedAt.IsZero() && a.CompletedAt.After(a.StartedAt) {
		s.Duration = a.CompletedAt.Sub(a.StartedAt)
	}
	return s
}

func holderRow(wc *domain.WalletClassification) HolderRow {
	md := wc.Metadata
	row := HolderRow{
		Address:           wc.Owner,
		Category:          string(wc.Category),
		AccountType:       string(md.AccountType),
		Confidence:        string(md.Confidence),
		Balance:           wc.UIBalance,
		Pct:               wc.SupplyPct,
		TxCount:           wc.TxCount,
		FirstTxAt:         wc.FirstTxAt,
		LastTxAt:          wc.LastTxAt,
		HasSold:           wc.HasSold,
		DiamondHand:       wc.DiamondHand,
		LongTermNoOutflow: wc.LongTermNoOutflow,
		Tags:              md.Tags,
		OwnerOffCurve:     md.OwnerOffCurve,
	}
	if md.SubType != nil {
		row.SubType = *md.SubType
	}
	if md.Label != nil {
		row.Label = *md.Label
	}
	if md.FundedBy != nil {
		row.FundedBy = md.FundedBy.Address
	}
	return row
}

type summaryAcc struct {
	count int
	raw   *big.Int
	ui    float64
}

func summarize(keys []string, holders []domain.WalletClassification, keyOf func(*domain.WalletClassification) string, mint *domain.MintInfo) []SummaryRow {
	acc := make(map[string]*summaryAcc)
	for i := range holders {
		h := &holders[i]
		k := keyOf(h)
		a, ok := acc[k]
		if !ok {
			a = &summaryAcc{raw: new(big.Int)}
			acc[k] = a
		}
		a.count++
		a.ui += h.UIBalance
		if h.RawBalance != nil {
			a.raw.Add(a.raw, h.RawBalance)
		}
	}

	var rows []SummaryRow
	for _, k := range keys {
		a, ok := acc[k]
		if !ok {
			continue
		}
		rows = append(rows, SummaryRow{
			Key:          k,
			Count:        a.count,
			TotalBalance: a.ui,
			Pct:          domain.SupplyPct(a.raw, mint.RawSupply),
		})
	}
	return rows
}

func summarizeByCategory(holders []domain.WalletClassification, mint *domain.MintInfo) []SummaryRow {
	keys := make([]string, len(domain.AllCategories))
	for i, c := range domain.AllCategories {
		keys[i] = string(c)
	}
	return summarize(keys, holders, func(h *domain.WalletClassification) string {
		return string(h.Category)
	}, mint)
}

func summarizeByAccountType(holders []domain.WalletClassification, mint *domain.MintInfo) []SummaryRow {
	keys := make([]string, len(domain.AllAccountTypes))
	for i, t := range domain.AllAccountTypes {
		keys[i] = string(t)
	}
	return summarize(keys, holders, func(h *domain.WalletClassification) string {
		return string(h.Metadata.AccountType)
	}, mint)
}
