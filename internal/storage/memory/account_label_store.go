package memory

import (
	"context"
	"sync"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/storage"
)

// AccountLabelStore is an in-memory implementation of storage.AccountLabelStore.
type AccountLabelStore struct {
	mu        sync.RWMutex
	byAddress map[string]*domain.AccountLabelRecord
}

// NewAccountLabelStore creates a new in-memory account label store.
func NewAccountLabelStore() *AccountLabelStore {
	return &AccountLabelStore{
		byAddress: make(map[string]*domain.AccountLabelRecord),
	}
}

// Upsert inserts or replaces the record for r.Address.
func (s *AccountLabelStore) Upsert(_ context.Context, r *domain.AccountLabelRecord) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byAddress[r.Address] = copyRecord(r)
	return nil
}

// GetByAddress retrieves the record for an address. Returns ErrNotFound if not exists.
func (s *AccountLabelStore) GetByAddress(_ context.Context, address string) (*domain.AccountLabelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byAddress[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRecord(r), nil
}

// DeleteOlderThan removes records fetched before cutoff.
func (s *AccountLabelStore) DeleteOlderThan(_ context.Context, cutoff int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for addr, r := range s.byAddress {
		if r.FetchedAt < cutoff {
			delete(s.byAddress, addr)
			n++
		}
	}
	return n, nil
}

func copyRecord(r *domain.AccountLabelRecord) *domain.AccountLabelRecord {
	cp := *r
	cp.Tags = append([]string(nil), r.Tags...)
	return &cp
}

var _ storage.AccountLabelStore = (*AccountLabelStore)(nil)
