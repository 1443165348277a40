package storage

import (
	"context"

	"solana-holder-lab/internal/domain"
)

// AccountLabelStore provides access to cached account metadata lookups.
type AccountLabelStore interface {
	// Upsert inserts or replaces the record for r.Address.
	Upsert(ctx context.Context, r *domain.AccountLabelRecord) error

	// GetByAddress retrieves the record for an address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.AccountLabelRecord, error)

	// DeleteOlderThan removes records fetched before cutoff (ms). Returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
