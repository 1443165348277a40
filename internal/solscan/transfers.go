package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"solana-holder-lab/internal/domain"
)

// ActivitySPLTransfer is the activity type of SPL token transfers.
const ActivitySPLTransfer = "ACTIVITY_SPL_TRANSFER"

// Page size bounds accepted by the transfer endpoint.
const (
	MinPageSize = 10
	MaxPageSize = 100
)

// ErrMalformedTransfer is returned when a transfer item cannot be decoded.
// The whole page fails so callers never see a page shortened by dropped items.
var ErrMalformedTransfer = errors.New("malformed transfer")

// TransferQuery defines the filters for account transfer history.
type TransferQuery struct {
	TokenMint string // optional mint restriction
	Page      int    // 1-based
	PageSize  int
	SortDesc  bool // sort by block time descending
}

// GetTransfers retrieves one page of SPL transfer activity for address.
func (c *HTTPClient) GetTransfers(ctx context.Context, address string, q TransferQuery) ([]domain.TransferRecord, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	order := "asc"
	if q.SortDesc {
		order = "desc"
	}

	query := url.Values{}
	query.Set("address", address)
	query.Set("activity_type[]", ActivitySPLTransfer)
	if q.TokenMint != "" {
		query.Set("token", q.TokenMint)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	query.Set("sort_by", "block_time")
	query.Set("sort_order", order)

	data, err := c.get(ctx, "/v2.0/account/transfer", query)
	if err != nil {
		return nil, err
	}

	var items []transferItem
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("unmarshal transfers: %w", err)
		}
	}

	records := make([]domain.TransferRecord, 0, len(items))
	for _, it := range items {
		amount, err := parseAmount(it.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTransfer, it.TransID, err)
		}
		records = append(records, domain.TransferRecord{
			Signature:    it.TransID,
			TokenAddress: it.TokenAddress,
			Flow:         domain.Flow(it.Flow),
			Amount:       amount,
			Decimals:     it.TokenDecimals,
			BlockTime:    it.BlockTime,
		})
	}

	return records, nil
}

// transferItem is one raw item of /v2.0/account/transfer.
type transferItem struct {
	BlockID       int64       `json:"block_id"`
	TransID       string      `json:"trans_id"`
	BlockTime     int64       `json:"block_time"`
	ActivityType  string      `json:"activity_type"`
	FromAddress   string      `json:"from_address"`
	ToAddress     string      `json:"to_address"`
	TokenAddress  string      `json:"token_address"`
	TokenDecimals int         `json:"token_decimals"`
	Amount        json.Number `json:"amount"`
	Flow          string      `json:"flow"`
}

// parseAmount parses a raw amount that may arrive in exponent notation.
func parseAmount(n json.Number) (*big.Int, error) {
	if v, ok := new(big.Int).SetString(string(n), 10); ok {
		return v, nil
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", n, err)
	}
	return d.BigInt(), nil
}
