package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/observability"
)

// Default configuration values.
// Requests are not retried unless WithMaxRetries is set; a failed query is
// treated as absent data by callers.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 0
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultCommitment  = "confirmed"
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
// Every query of one client uses the same commitment so a run reads one consistent view.
type HTTPClient struct {
	endpoint    string
	commitment  string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithCommitment sets the commitment level (processed, confirmed, finalized).
func WithCommitment(level string) ClientOption {
	return func(c *HTTPClient) {
		if level != "" {
			c.commitment = level
		}
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		commitment:  DefaultCommitment,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// StatusError is a non-200 HTTP response from the RPC endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return "rate limited (429)"
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// config builds the per-call configuration object with the client commitment.
func (c *HTTPClient) config(encoding string) map[string]interface{} {
	cfg := map[string]interface{}{"commitment": c.commitment}
	if encoding != "" {
		cfg["encoding"] = encoding
	}
	return cfg
}

// call performs a JSON-RPC call with retries and exponential backoff.
// JSON-RPC errors and 4xx responses other than 429 are returned without retry.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 256)}
			if !statusErr.Retryable() {
				return statusErr
			}
			lastErr = statusErr
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// GetMintInfo retrieves mint supply, decimals and authorities.
func (c *HTTPClient) GetMintInfo(ctx context.Context, mint string) (*domain.MintInfo, error) {
	info, err := c.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, &ChainQueryError{Method: "getAccountInfo", Address: mint, Err: err}
	}
	if info == nil {
		return nil, &ChainQueryError{Method: "getAccountInfo", Address: mint, Err: ErrAccountNotFound}
	}
	if info.Owner != TokenProgramID && info.Owner != Token2022ProgramID {
		return nil, &ChainQueryError{
			Method:  "getAccountInfo",
			Address: mint,
			Err:     fmt.Errorf("%w: owned by %s", ErrNotMint, info.Owner),
		}
	}

	mintInfo, err := decodeMint(mint, info.Owner, info.Data)
	if err != nil {
		return nil, &ChainQueryError{Method: "getAccountInfo", Address: mint, Err: err}
	}
	return mintInfo, nil
}

// GetLargestTokenAccounts retrieves the largest token accounts of a mint.
func (c *HTTPClient) GetLargestTokenAccounts(ctx context.Context, mint string) ([]LargestAccount, error) {
	params := []interface{}{mint, c.config("")}

	var result getTokenLargestAccountsResult
	if err := c.call(ctx, "getTokenLargestAccounts", params, &result); err != nil {
		return nil, &ChainQueryError{Method: "getTokenLargestAccounts", Address: mint, Err: err}
	}

	accounts := make([]LargestAccount, 0, len(result.Value))
	for _, v := range result.Value {
		amount := domain.ParseRawAmount(v.Amount)
		if amount == nil {
			continue
		}
		accounts = append(accounts, LargestAccount{
			Address:   v.Address,
			RawAmount: amount,
			Decimals:  v.Decimals,
		})
		if len(accounts) == MaxLargestAccounts {
			break
		}
	}

	return accounts, nil
}

// getTokenLargestAccountsResult is the raw RPC response for getTokenLargestAccounts.
type getTokenLargestAccountsResult struct {
	Value []struct {
		Address  string `json:"address"`
		Amount   string `json:"amount"`
		Decimals int    `json:"decimals"`
	} `json:"value"`
}

// GetOwnerOfTokenAccount resolves the wallet owning a token account.
func (c *HTTPClient) GetOwnerOfTokenAccount(ctx context.Context, tokenAccount string) (string, error) {
	params := []interface{}{tokenAccount, c.config("jsonParsed")}

	var result getParsedAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return "", &ChainQueryError{Method: "getAccountInfo", Address: tokenAccount, Err: err}
	}

	if result.Value == nil {
		return tokenAccount, nil
	}

	rec, ok := parseTokenAccount(tokenAccount, result.Value.Data)
	if !ok {
		return tokenAccount, nil
	}
	return rec.Owner, nil
}

type getParsedAccountInfoResult struct {
	Value *parsedAccountValue `json:"value"`
}

type parsedAccountValue struct {
	Owner string          `json:"owner"`
	Data  json.RawMessage `json:"data"` // object when parsed, [base64, encoding] otherwise
}

// GetProgramAccounts enumerates token accounts owned by programID.
func (c *HTTPClient) GetProgramAccounts(ctx context.Context, programID string, filter ProgramAccountsFilter) ([]domain.HolderRecord, error) {
	filters := make([]interface{}, 0, 2)
	if filter.DataSize > 0 {
		filters = append(filters, map[string]interface{}{"dataSize": filter.DataSize})
	}
	if filter.MintPrefix != "" {
		filters = append(filters, map[string]interface{}{
			"memcmp": map[string]interface{}{
				"offset": 0,
				"bytes":  filter.MintPrefix,
			},
		})
	}

	cfg := c.config("jsonParsed")
	if len(filters) > 0 {
		cfg["filters"] = filters
	}
	params := []interface{}{programID, cfg}

	var result []getProgramAccountsItem
	if err := c.call(ctx, "getProgramAccounts", params, &result); err != nil {
		return nil, &ChainQueryError{Method: "getProgramAccounts", Address: programID, Err: err}
	}

	records := make([]domain.HolderRecord, 0, len(result))
	for _, item := range result {
		if item.Account == nil {
			continue
		}
		rec, ok := parseTokenAccount(item.Pubkey, item.Account.Data)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// getProgramAccountsItem is the raw RPC response item for getProgramAccounts.
type getProgramAccountsItem struct {
	Pubkey  string              `json:"pubkey"`
	Account *parsedAccountValue `json:"account"`
}

// GetAccountInfo retrieves account info by public key.
// Returns nil if account not found.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	params := []interface{}{pubkey, c.config("base64")}

	var result getAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}

	info := &AccountInfo{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
	}

	if len(result.Value.Data) >= 1 {
		info.Data = result.Value.Data[0]
	}

	return info, nil
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
}

type getAccountInfoResult struct {
	Value *getAccountInfoValue `json:"value"`
}

type getAccountInfoValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
}

// GetSlot retrieves the current slot.
func (c *HTTPClient) GetSlot(ctx context.Context) (int64, error) {
	var slot int64
	if err := c.call(ctx, "getSlot", []interface{}{c.config("")}, &slot); err != nil {
		return 0, &ChainQueryError{Method: "getSlot", Err: err}
	}
	return slot, nil
}

var _ RPCClient = (*HTTPClient)(nil)
