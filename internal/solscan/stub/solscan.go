package stub

import (
	"context"
	"sort"
	"sync"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/solscan"
)

// Client implements the metadata and transfer providers for testing.
type Client struct {
	mu        sync.Mutex
	Metadata  map[string]*domain.AccountMetadata
	Transfers map[string][]domain.TransferRecord
	Errors    map[string]error // address -> error returned by every call

	MetadataCalls map[string]int
	TransferCalls map[string]int
}

// NewClient creates a new stub client.
func NewClient() *Client {
	return &Client{
		Metadata:      make(map[string]*domain.AccountMetadata),
		Transfers:     make(map[string][]domain.TransferRecord),
		Errors:        make(map[string]error),
		MetadataCalls: make(map[string]int),
		TransferCalls: make(map[string]int),
	}
}

// GetAccountMetadata returns stored metadata or nil.
func (c *Client) GetAccountMetadata(_ context.Context, address string) (*domain.AccountMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MetadataCalls[address]++
	if err := c.Errors[address]; err != nil {
		return nil, err
	}
	return c.Metadata[address], nil
}

// GetTransfers pages through stored transfers sorted by block time.
func (c *Client) GetTransfers(_ context.Context, address string, q solscan.TransferQuery) ([]domain.TransferRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TransferCalls[address]++
	if err := c.Errors[address]; err != nil {
		return nil, err
	}

	var all []domain.TransferRecord
	for _, r := range c.Transfers[address] {
		if q.TokenMint == "" || r.TokenAddress == "" || r.TokenAddress == q.TokenMint {
			all = append(all, r)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if q.SortDesc {
			return all[i].BlockTime > all[j].BlockTime
		}
		return all[i].BlockTime < all[j].BlockTime
	})

	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * q.PageSize
	if start >= len(all) {
		return nil, nil
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// SetLabel stores metadata with label and tags for address.
func (c *Client) SetLabel(address, label string, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta := &domain.AccountMetadata{Tags: tags}
	if label != "" {
		meta.Label = &label
	}
	c.Metadata[address] = meta
}

// AddTransfers appends transfer records for address.
func (c *Client) AddTransfers(address string, records ...domain.TransferRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transfers[address] = append(c.Transfers[address], records...)
}

// TotalMetadataCalls returns the number of metadata lookups across all addresses.
func (c *Client) TotalMetadataCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.MetadataCalls {
		n += v
	}
	return n
}
