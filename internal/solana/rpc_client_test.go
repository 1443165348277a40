package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"
)

const testMint = "So11111111111111111111111111111111111111112"

// rpcHandler decodes a JSON-RPC request and responds with result(req).
func rpcHandler(t *testing.T, wantMethod string, result func(req rpcRequest) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != wantMethod {
			t.Errorf("expected method %s, got %s", wantMethod, req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result(req),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func testPubkey(seed byte) []byte {
	s := make([]byte, ed25519.SeedSize)
	s[0] = seed
	return ed25519.NewKeyFromSeed(s).Public().(ed25519.PublicKey)
}

func buildMintData(supply uint64, decimals byte, mintAuth, freezeAuth []byte) string {
	raw := make([]byte, mintLayoutSize)
	if mintAuth != nil {
		binary.LittleEndian.PutUint32(raw[mintAuthorityOptOffset:], 1)
		copy(raw[mintAuthorityOffset:], mintAuth)
	}
	binary.LittleEndian.PutUint64(raw[mintSupplyOffset:], supply)
	raw[mintDecimalsOffset] = decimals
	raw[mintInitializedOffset] = 1
	if freezeAuth != nil {
		binary.LittleEndian.PutUint32(raw[freezeAuthorityOptOffset:], 1)
		copy(raw[freezeAuthorityOffset:], freezeAuth)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func parsedTokenAccount(owner, amount string, decimals int, state string) map[string]interface{} {
	return map[string]interface{}{
		"program": "spl-token",
		"parsed": map[string]interface{}{
			"type": "account",
			"info": map[string]interface{}{
				"mint":  testMint,
				"owner": owner,
				"state": state,
				"tokenAmount": map[string]interface{}{
					"amount":   amount,
					"decimals": decimals,
				},
			},
		},
	}
}

func TestHTTPClient_GetMintInfo(t *testing.T) {
	freezeAuth := testPubkey(7)

	server := httptest.NewServer(rpcHandler(t, "getAccountInfo", func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   uint64(1461600),
				"owner":      TokenProgramID,
				"data":       []string{buildMintData(1_000_000_000_000, 6, nil, freezeAuth), "base64"},
				"executable": false,
			},
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetMintInfo(context.Background(), testMint)
	if err != nil {
		t.Fatalf("GetMintInfo: %v", err)
	}

	if info.RawSupply.String() != "1000000000000" {
		t.Errorf("expected raw supply 1000000000000, got %s", info.RawSupply)
	}
	if info.Supply != 1_000_000 {
		t.Errorf("expected supply 1000000, got %v", info.Supply)
	}
	if info.Decimals != 6 {
		t.Errorf("expected decimals 6, got %d", info.Decimals)
	}
	if info.MintAuthority != nil {
		t.Errorf("expected revoked mint authority, got %s", *info.MintAuthority)
	}
	if info.FreezeAuthority == nil || *info.FreezeAuthority != base58.Encode(freezeAuth) {
		t.Errorf("unexpected freeze authority: %v", info.FreezeAuthority)
	}
	if info.ProgramID != TokenProgramID {
		t.Errorf("expected token program, got %s", info.ProgramID)
	}
}

func TestHTTPClient_GetMintInfo_NotFound(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, "getAccountInfo", func(req rpcRequest) interface{} {
		return map[string]interface{}{"value": nil}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetMintInfo(context.Background(), testMint)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var cqErr *ChainQueryError
	if !errors.As(err, &cqErr) {
		t.Fatalf("expected ChainQueryError, got %T", err)
	}
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestHTTPClient_GetMintInfo_NotMint(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, "getAccountInfo", func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"value": map[string]interface{}{
				"owner": "11111111111111111111111111111111",
				"data":  []string{"", "base64"},
			},
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetMintInfo(context.Background(), testMint)
	if !errors.Is(err, ErrNotMint) {
		t.Errorf("expected ErrNotMint, got %v", err)
	}
}

func TestHTTPClient_GetLargestTokenAccounts(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, "getTokenLargestAccounts", func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"value": []map[string]interface{}{
				{"address": "acct1", "amount": "600000000", "decimals": 6},
				{"address": "acct2", "amount": "not-a-number", "decimals": 6},
				{"address": "acct3", "amount": "18446744073709551616", "decimals": 6},
			},
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	accounts, err := client.GetLargestTokenAccounts(context.Background(), testMint)
	if err != nil {
		t.Fatalf("GetLargestTokenAccounts: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Address != "acct1" || accounts[0].RawAmount.Int64() != 600000000 {
		t.Errorf("unexpected first account: %+v", accounts[0])
	}
	if accounts[1].RawAmount.String() != "18446744073709551616" {
		t.Errorf("expected amount above uint64 preserved, got %s", accounts[1].RawAmount)
	}
}

func TestHTTPClient_GetOwnerOfTokenAccount(t *testing.T) {
	owner := base58.Encode(testPubkey(1))

	server := httptest.NewServer(rpcHandler(t, "getAccountInfo", func(req rpcRequest) interface{} {
		cfg := req.Params[1].(map[string]interface{})
		if cfg["encoding"] != "jsonParsed" {
			t.Errorf("expected jsonParsed encoding, got %v", cfg["encoding"])
		}
		if req.Params[0] == "token-acct" {
			return map[string]interface{}{
				"value": map[string]interface{}{
					"owner": TokenProgramID,
					"data":  parsedTokenAccount(owner, "100", 0, "initialized"),
				},
			}
		}
		// Not a token account: data falls back to base64.
		return map[string]interface{}{
			"value": map[string]interface{}{
				"owner": "11111111111111111111111111111111",
				"data":  []string{"", "base64"},
			},
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	got, err := client.GetOwnerOfTokenAccount(ctx, "token-acct")
	if err != nil {
		t.Fatalf("GetOwnerOfTokenAccount: %v", err)
	}
	if got != owner {
		t.Errorf("expected owner %s, got %s", owner, got)
	}

	got, err = client.GetOwnerOfTokenAccount(ctx, "wallet")
	if err != nil {
		t.Fatalf("GetOwnerOfTokenAccount: %v", err)
	}
	if got != "wallet" {
		t.Errorf("expected input returned unchanged, got %s", got)
	}
}

func TestHTTPClient_GetProgramAccounts(t *testing.T) {
	owner := base58.Encode(testPubkey(2))

	server := httptest.NewServer(rpcHandler(t, "getProgramAccounts", func(req rpcRequest) interface{} {
		cfg := req.Params[1].(map[string]interface{})
		filters := cfg["filters"].([]interface{})
		if len(filters) != 2 {
			t.Errorf("expected 2 filters, got %d", len(filters))
		}
		return []map[string]interface{}{
			{"pubkey": "acct1", "account": map[string]interface{}{
				"owner": TokenProgramID,
				"data":  parsedTokenAccount(owner, "5000000", 6, "frozen"),
			}},
			{"pubkey": "acct2", "account": map[string]interface{}{
				"owner": TokenProgramID,
				"data":  []string{"AAAA", "base64"},
			}},
			{"pubkey": "acct3", "account": map[string]interface{}{
				"owner": TokenProgramID,
				"data": map[string]interface{}{
					"program": "spl-token",
					"parsed":  map[string]interface{}{"type": "mint"},
				},
			}},
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	recs, err := client.GetProgramAccounts(context.Background(), TokenProgramID, TokenAccountFilter(TokenProgramID, testMint))
	if err != nil {
		t.Fatalf("GetProgramAccounts: %v", err)
	}

	if len(recs) != 1 {
		t.Fatalf("expected 1 parsed account, got %d", len(recs))
	}
	rec := recs[0]
	if rec.TokenAccount != "acct1" || rec.Owner != owner {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.UIBalance != 5 {
		t.Errorf("expected UI balance 5, got %v", rec.UIBalance)
	}
	if !rec.IsFrozen() {
		t.Error("expected frozen state")
	}
	if rec.OwnerOffCurve {
		t.Error("expected on-curve owner")
	}
}

func TestTokenAccountFilter(t *testing.T) {
	f := TokenAccountFilter(TokenProgramID, testMint)
	if f.DataSize != TokenAccountSize || f.MintPrefix != testMint {
		t.Errorf("unexpected token filter: %+v", f)
	}

	f = TokenAccountFilter(Token2022ProgramID, testMint)
	if f.DataSize != 0 {
		t.Errorf("expected no size filter for Token-2022, got %d", f.DataSize)
	}
}

func TestIsOnCurve(t *testing.T) {
	if !IsOnCurve(base58.Encode(testPubkey(3))) {
		t.Error("expected ed25519 public key to be on curve")
	}

	offCurve := make([]byte, 32)
	for i := range offCurve {
		offCurve[i] = 0xff
	}
	if IsOnCurve(base58.Encode(offCurve)) {
		t.Error("expected non-canonical point to be off curve")
	}

	if IsOnCurve("not base58 0OIl") {
		t.Error("expected invalid address to be off curve")
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(999),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}

	if slot != 999 {
		t.Errorf("expected slot 999, got %d", slot)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_NoRetryByDefault(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.GetSlot(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}

	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32600,
				"message": "Invalid Request",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.GetProgramAccounts(context.Background(), TokenProgramID, ProgramAccountsFilter{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *rpcError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected rpcError, got %T", err)
	}

	if rpcErr.Code != -32600 {
		t.Errorf("expected code -32600, got %d", rpcErr.Code)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.GetSlot(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("method disabled"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	_, err := client.GetProgramAccounts(context.Background(), TokenProgramID, ProgramAccountsFilter{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusForbidden || statusErr.Retryable() {
		t.Errorf("unexpected status error: %+v", statusErr)
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_Commitment(t *testing.T) {
	var got string

	server := httptest.NewServer(rpcHandler(t, "getSlot", func(req rpcRequest) interface{} {
		if len(req.Params) == 1 {
			if cfg, ok := req.Params[0].(map[string]interface{}); ok {
				got, _ = cfg["commitment"].(string)
			}
		}
		return int64(1)
	}))
	defer server.Close()

	if _, err := NewHTTPClient(server.URL).GetSlot(context.Background()); err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if got != DefaultCommitment {
		t.Errorf("expected commitment %s, got %q", DefaultCommitment, got)
	}

	if _, err := NewHTTPClient(server.URL, WithCommitment("finalized")).GetSlot(context.Background()); err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if got != "finalized" {
		t.Errorf("expected commitment finalized, got %q", got)
	}
}
