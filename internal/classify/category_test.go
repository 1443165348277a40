package classify

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"solana-holder-lab/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func history(firstDaysAgo, txCount int, hasSold bool) domain.WalletHistorySummary {
	return domain.WalletHistorySummary{
		FirstTxAt: daysAgo(firstDaysAgo),
		LastTxAt:  testNow,
		TxCount:   txCount,
		HasSold:   hasSold,
	}
}

func highCtx(t domain.AccountType) *CategoryContext {
	return &CategoryContext{Classification: &domain.AccountClassification{Type: t, Confidence: domain.ConfidenceHigh}}
}

func mediumCtx(t domain.AccountType) *CategoryContext {
	return &CategoryContext{Classification: &domain.AccountClassification{Type: t, Confidence: domain.ConfidenceMedium}}
}

func input(balance int64, h domain.WalletHistorySummary, ctx *CategoryContext) CategoryInput {
	return CategoryInput{
		BalanceRaw: big.NewInt(balance),
		SupplyRaw:  big.NewInt(1_000_000),
		Decimals:   0,
		History:    h,
		Context:    ctx,
		Now:        testNow,
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		in   CategoryInput
		want domain.WalletCategory
	}{
		{"foundation 6% never sold", input(60_000, history(10, 3, false), nil), domain.CategoryFoundation},
		{"investor 3% old quiet", input(30_000, history(200, 10, true), nil), domain.CategoryInvestor},
		{"investor too young", input(30_000, history(100, 10, true), nil), domain.CategoryCommunity},
		{"team 0.5% never sold", input(5_000, history(30, 5, false), nil), domain.CategoryTeam},
		{"behavioral exchange by tx count", input(100, history(30, 1001, true), nil), domain.CategoryExchange},
		{"high cex beats foundation", input(60_000, history(10, 3, false), highCtx(domain.AccountTypeCEX)), domain.CategoryExchange},
		{"high dex", input(60_000, history(10, 3, false), highCtx(domain.AccountTypeDEX)), domain.CategoryDex},
		{"high bridge", input(10, history(10, 3, false), highCtx(domain.AccountTypeBridge)), domain.CategoryInfrastructure},
		{"high validator", input(10, history(10, 3, false), highCtx(domain.AccountTypeValidator)), domain.CategoryInfrastructure},
		{"high market maker", input(10, history(10, 3, false), highCtx(domain.AccountTypeMarketMaker)), domain.CategoryMarketMaker},
		{"high defi falls through", input(60_000, history(10, 3, false), highCtx(domain.AccountTypeDeFiProtocol)), domain.CategoryFoundation},
		{"high unknown falls through", input(10, history(10, 3, false), highCtx(domain.AccountTypeUnknown)), domain.CategoryCommunity},
		{"legacy cex flag", input(60_000, history(10, 3, false), &CategoryContext{IsCex: true}), domain.CategoryExchange},
		{"legacy dex flag", input(60_000, history(10, 3, false), &CategoryContext{IsDex: true}), domain.CategoryDex},
		{"medium whale large", input(6_000, history(10, 3, true), mediumCtx(domain.AccountTypeWhale)), domain.CategoryInvestor},
		{"medium whale small", input(100, history(10, 3, true), mediumCtx(domain.AccountTypeWhale)), domain.CategoryCommunity},
		{"medium bot", input(100, history(10, 3, true), mediumCtx(domain.AccountTypeBotTrader)), domain.CategoryMarketMaker},
		{"medium institutional", input(100, history(10, 3, true), mediumCtx(domain.AccountTypeInstitutional)), domain.CategoryMarketMaker},
		{"behavior beats medium label", input(60_000, history(10, 3, false), mediumCtx(domain.AccountTypeBotTrader)), domain.CategoryFoundation},
		{"default community", input(100, history(10, 3, true), nil), domain.CategoryCommunity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.in))
		})
	}
}

func TestCategorize_BehavioralExchangeByNetFlow(t *testing.T) {
	h := history(10, 5, true)
	h.NetFlow = -10_000_001
	assert.Equal(t, domain.CategoryExchange, Categorize(input(100, h, nil)))
}

func TestCategorize_BehavioralMarketMaker(t *testing.T) {
	h := history(60, 150, true)
	h.NetFlow = 5 // < 10% of 100
	assert.Equal(t, domain.CategoryMarketMaker, Categorize(input(100, h, nil)))

	h.NetFlow = 50
	assert.Equal(t, domain.CategoryCommunity, Categorize(input(100, h, nil)))
}

func TestCategorize_HighCEXIgnoresBehavior(t *testing.T) {
	for _, balance := range []int64{0, 1, 60_000, 1_000_000} {
		for _, h := range []domain.WalletHistorySummary{history(0, 0, false), history(400, 5000, true)} {
			assert.Equal(t, domain.CategoryExchange, Categorize(input(balance, h, highCtx(domain.AccountTypeCEX))))
		}
	}
}

func TestClassifyWallet_Scenario(t *testing.T) {
	mint := &domain.MintInfo{RawSupply: big.NewInt(1_000_000), Decimals: 0, Supply: 1_000_000}

	foundation := ClassifyWallet(WalletInput{
		Owner: "f1", BalanceRaw: big.NewInt(60_000), Mint: mint,
		History: history(120, 3, false), Now: testNow,
	})
	assert.Equal(t, domain.CategoryFoundation, foundation.Category)
	assert.Equal(t, 6.0, foundation.SupplyPct)
	assert.True(t, foundation.DiamondHand)
	assert.False(t, foundation.LongTermNoOutflow)
	assert.Equal(t, domain.AccountTypeUnknown, foundation.Metadata.AccountType)

	investor := ClassifyWallet(WalletInput{
		Owner: "i1", BalanceRaw: big.NewInt(30_000), Mint: mint,
		History: history(200, 10, false), Now: testNow,
	})
	assert.Equal(t, domain.CategoryInvestor, investor.Category)
	assert.True(t, investor.LongTermNoOutflow)

	exchange := ClassifyWallet(WalletInput{
		Owner: "b1", BalanceRaw: big.NewInt(60_000), Mint: mint,
		History:  history(120, 3, false),
		Metadata: meta("Binance Hot Wallet", "exchange"),
		Now:      testNow,
	})
	assert.Equal(t, domain.CategoryExchange, exchange.Category)
	assert.Equal(t, domain.AccountTypeCEX, exchange.Metadata.AccountType)
	assert.Equal(t, domain.ConfidenceHigh, exchange.Metadata.Confidence)
	assert.Equal(t, "Binance Hot Wallet", *exchange.Metadata.Label)
}

func TestClassifyWallet_LongTermNoOutflow(t *testing.T) {
	mint := &domain.MintInfo{RawSupply: big.NewInt(1_000_000)}

	recent := daysAgo(30)
	h := history(400, 10, true)
	h.LastOutflowAt = &recent
	wc := ClassifyWallet(WalletInput{Owner: "a", BalanceRaw: big.NewInt(1), Mint: mint, History: h, Now: testNow})
	assert.False(t, wc.LongTermNoOutflow)
	assert.False(t, wc.DiamondHand)

	old := daysAgo(200)
	h.LastOutflowAt = &old
	wc = ClassifyWallet(WalletInput{Owner: "a", BalanceRaw: big.NewInt(1), Mint: mint, History: h, Now: testNow})
	assert.True(t, wc.LongTermNoOutflow)
}
