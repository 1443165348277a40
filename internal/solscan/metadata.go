package solscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"solana-holder-lab/internal/domain"
)

// GetAccountMetadata retrieves the label, tags, funding source and age of an address.
// Returns nil if the provider has no metadata for the address.
func (c *HTTPClient) GetAccountMetadata(ctx context.Context, address string) (*domain.AccountMetadata, error) {
	query := url.Values{}
	query.Set("address", address)

	data, err := c.get(ctx, "/v2.0/account/metadata", query)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var result accountMetadataResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	return result.toDomain(), nil
}

// accountMetadataResult is the raw data of /v2.0/account/metadata.
type accountMetadataResult struct {
	AccountAddress string          `json:"account_address"`
	AccountLabel   string          `json:"account_label"`
	AccountTags    []string        `json:"account_tags"`
	AccountType    string          `json:"account_type"`
	FundedBy       *fundedByResult `json:"funded_by"`
	ActiveAge      *int            `json:"active_age"`
}

type fundedByResult struct {
	FundedBy  string `json:"funded_by"`
	TxHash    string `json:"tx_hash"`
	BlockTime int64  `json:"block_time"`
}

func (r *accountMetadataResult) toDomain() *domain.AccountMetadata {
	meta := &domain.AccountMetadata{
		ActiveAgeDays: r.ActiveAge,
	}

	if label := strings.TrimSpace(r.AccountLabel); label != "" {
		meta.Label = &label
	}

	for _, tag := range r.AccountTags {
		if tag = strings.TrimSpace(tag); tag != "" {
			meta.Tags = append(meta.Tags, tag)
		}
	}

	if r.FundedBy != nil && r.FundedBy.FundedBy != "" {
		meta.FundedBy = &domain.FundedBy{
			Address:   r.FundedBy.FundedBy,
			TxHash:    r.FundedBy.TxHash,
			BlockTime: r.FundedBy.BlockTime,
		}
	}

	return meta
}
