package history

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/ratelimit"
	"solana-holder-lab/internal/solscan"
	"solana-holder-lab/internal/solscan/stub"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestAnalyzer(p TransferProvider) *Analyzer {
	return NewAnalyzer(p,
		WithLimiter(ratelimit.Unlimited("test")),
		WithClock(func() time.Time { return testNow }),
	)
}

func transfer(flow domain.Flow, amount int64, blockTime int64) domain.TransferRecord {
	return domain.TransferRecord{
		Flow:      flow,
		Amount:    big.NewInt(amount),
		Decimals:  2,
		BlockTime: blockTime,
	}
}

func TestAnalyze_Summary(t *testing.T) {
	client := stub.NewClient()
	client.AddTransfers("owner1",
		transfer(domain.FlowIn, 10000, 1000),
		transfer(domain.FlowOut, 2500, 3000),
		transfer(domain.FlowOut, 500, 2000),
		transfer(domain.FlowIn, 100, 4000),
	)

	s := newTestAnalyzer(client).Analyze(context.Background(), "owner1", "")

	assert.Equal(t, 4, s.TxCount)
	assert.Equal(t, time.Unix(1000, 0).UTC(), s.FirstTxAt)
	assert.Equal(t, time.Unix(4000, 0).UTC(), s.LastTxAt)
	assert.True(t, s.HasSold)
	assert.InDelta(t, 101.0-30.0, s.NetFlow, 1e-9)
	require.NotNil(t, s.LastOutflowAt)
	assert.Equal(t, time.Unix(3000, 0).UTC(), *s.LastOutflowAt)
}

func TestAnalyze_NeverSold(t *testing.T) {
	client := stub.NewClient()
	client.AddTransfers("owner1", transfer(domain.FlowIn, 100, 1000))

	s := newTestAnalyzer(client).Analyze(context.Background(), "owner1", "")

	assert.False(t, s.HasSold)
	assert.Nil(t, s.LastOutflowAt)
	assert.Equal(t, 1.0, s.NetFlow)
}

func TestAnalyze_ProviderFailure(t *testing.T) {
	client := stub.NewClient()
	client.Errors["owner1"] = errors.New("boom")

	s := newTestAnalyzer(client).Analyze(context.Background(), "owner1", "")

	assert.Equal(t, domain.EmptyHistory(testNow), s)
}

func TestAnalyze_NoRecords(t *testing.T) {
	s := newTestAnalyzer(stub.NewClient()).Analyze(context.Background(), "nobody", "")

	assert.Equal(t, 0, s.TxCount)
	assert.Equal(t, testNow, s.FirstTxAt)
	assert.Equal(t, testNow, s.LastTxAt)
}

func TestAnalyze_StopsOnShortPage(t *testing.T) {
	client := stub.NewClient()
	for i := 0; i < 250; i++ {
		client.AddTransfers("owner1", transfer(domain.FlowIn, 1, int64(i)))
	}

	s := newTestAnalyzer(client).Analyze(context.Background(), "owner1", "")

	assert.Equal(t, 250, s.TxCount)
	assert.Equal(t, 3, client.TransferCalls["owner1"])
}

func TestAnalyze_StopsAtExactPageBoundary(t *testing.T) {
	client := stub.NewClient()
	for i := 0; i < 200; i++ {
		client.AddTransfers("owner1", transfer(domain.FlowIn, 1, int64(i)))
	}

	s := newTestAnalyzer(client).Analyze(context.Background(), "owner1", "")

	// Third page is empty and ends pagination.
	assert.Equal(t, 200, s.TxCount)
	assert.Equal(t, 3, client.TransferCalls["owner1"])
}

func TestAnalyze_CapsAtMaxRecords(t *testing.T) {
	client := stub.NewClient()
	for i := 0; i < 1500; i++ {
		client.AddTransfers("owner1", transfer(domain.FlowIn, 1, int64(i)))
	}

	s := newTestAnalyzer(client).Analyze(context.Background(), "owner1", "")

	assert.Equal(t, MaxRecords, s.TxCount)
	assert.Equal(t, MaxRecords/PageSize, client.TransferCalls["owner1"])
	// Pages are newest first, so the sample keeps the most recent transfers.
	assert.Equal(t, time.Unix(500, 0).UTC(), s.FirstTxAt)
	assert.Equal(t, time.Unix(1499, 0).UTC(), s.LastTxAt)
}

func TestAnalyze_MintFilter(t *testing.T) {
	client := stub.NewClient()
	a := transfer(domain.FlowIn, 100, 1)
	a.TokenAddress = "mintA"
	b := transfer(domain.FlowOut, 100, 2)
	b.TokenAddress = "mintB"
	client.AddTransfers("owner1", a, b)

	s := newTestAnalyzer(client).Analyze(context.Background(), "owner1", "mintA")

	assert.Equal(t, 1, s.TxCount)
	assert.False(t, s.HasSold)
}

// timedProvider records when each page request reaches the provider.
type timedProvider struct {
	*stub.Client
	calls []time.Time
}

func (p *timedProvider) GetTransfers(ctx context.Context, address string, q solscan.TransferQuery) ([]domain.TransferRecord, error) {
	p.calls = append(p.calls, time.Now())
	return p.Client.GetTransfers(ctx, address, q)
}

func TestAnalyze_IntervalBetweenPages(t *testing.T) {
	const interval = 50 * time.Millisecond

	client := stub.NewClient()
	for i := 0; i < 250; i++ {
		client.AddTransfers("owner1", transfer(domain.FlowIn, 1, int64(i)))
	}
	client.AddTransfers("owner2", transfer(domain.FlowIn, 1, 1))
	provider := &timedProvider{Client: client}

	a := NewAnalyzer(provider,
		WithLimiter(ratelimit.NewInterval("history", interval)),
		WithClock(func() time.Time { return testNow }),
	)
	s1 := a.Analyze(context.Background(), "owner1", "")
	s2 := a.Analyze(context.Background(), "owner2", "")

	assert.Equal(t, 250, s1.TxCount)
	assert.Equal(t, 1, s2.TxCount)
	// Three pages for owner1, one for owner2, all through the shared limiter.
	require.Len(t, provider.calls, 4)
	for i := 1; i < len(provider.calls); i++ {
		gap := provider.calls[i].Sub(provider.calls[i-1])
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond, "request %d issued %v after the previous one", i+1, gap)
	}
}

func TestAnalyze_MalformedRecordFailsHistory(t *testing.T) {
	// A full page with one undecodable amount must not read as a short last page.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := make([]string, 0, PageSize)
		for i := 0; i < PageSize; i++ {
			amount := `,"amount":100`
			if i == 42 {
				amount = ""
			}
			items = append(items, fmt.Sprintf(`{"trans_id":"sig%d","block_time":%d,"token_decimals":0,"flow":"out"%s}`, i, 1000+i, amount))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"success":true,"data":[%s]}`, strings.Join(items, ","))
	}))
	defer server.Close()

	client := solscan.NewHTTPClient("", solscan.WithBaseURL(server.URL))
	s := newTestAnalyzer(client).Analyze(context.Background(), "owner1", "")

	assert.Equal(t, domain.EmptyHistory(testNow), s)
}
