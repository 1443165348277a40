package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/observability"
	"solana-holder-lab/internal/storage"
)

// AccountLabelStore implements storage.AccountLabelStore using PostgreSQL.
type AccountLabelStore struct {
	pool *Pool
}

// NewAccountLabelStore creates a new AccountLabelStore.
func NewAccountLabelStore(pool *Pool) *AccountLabelStore {
	return &AccountLabelStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountLabelStore = (*AccountLabelStore)(nil)

// Upsert inserts or replaces the record for r.Address.
func (s *AccountLabelStore) Upsert(ctx context.Context, r *domain.AccountLabelRecord) (err error) {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "account_labels_upsert", time.Since(start).Seconds(), err)
	}()

	query := `
		INSERT INTO account_labels (
			address, found, label, tags, funded_by, funded_by_tx, funded_by_time,
			active_age_days, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (address) DO UPDATE SET
			found = EXCLUDED.found,
			label = EXCLUDED.label,
			tags = EXCLUDED.tags,
			funded_by = EXCLUDED.funded_by,
			funded_by_tx = EXCLUDED.funded_by_tx,
			funded_by_time = EXCLUDED.funded_by_time,
			active_age_days = EXCLUDED.active_age_days,
			fetched_at = EXCLUDED.fetched_at
	`

	var fundedBy, fundedByTx *string
	var fundedByTime *int64
	if r.FundedBy != nil {
		fundedBy = &r.FundedBy.Address
		fundedByTx = &r.FundedBy.TxHash
		fundedByTime = &r.FundedBy.BlockTime
	}

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err = s.pool.Exec(ctx, query,
		r.Address,
		r.Found,
		r.Label,
		tags,
		fundedBy,
		fundedByTx,
		fundedByTime,
		r.ActiveAgeDays,
		r.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert account label: %w", err)
	}
	return nil
}

// GetByAddress retrieves the record for an address. Returns ErrNotFound if not exists.
func (s *AccountLabelStore) GetByAddress(ctx context.Context, address string) (*domain.AccountLabelRecord, error) {
	query := `
		SELECT address, found, label, tags, funded_by, funded_by_tx, funded_by_time,
			active_age_days, fetched_at
		FROM account_labels
		WHERE address = $1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, address)
	r, err := scanAccountLabel(row)
	if err != nil {
		if isNotFoundError(err) {
			observability.RecordDBQuery("postgres", "account_labels_get", time.Since(start).Seconds(), nil)
			return nil, storage.ErrNotFound
		}
		observability.RecordDBQuery("postgres", "account_labels_get", time.Since(start).Seconds(), err)
		return nil, fmt.Errorf("get account label: %w", err)
	}
	observability.RecordDBQuery("postgres", "account_labels_get", time.Since(start).Seconds(), nil)
	return r, nil
}

// DeleteOlderThan removes records fetched before cutoff (ms).
func (s *AccountLabelStore) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	query := `DELETE FROM account_labels WHERE fetched_at < $1`

	tag, err := s.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale account labels: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanAccountLabel scans a single row into AccountLabelRecord.
func scanAccountLabel(row pgx.Row) (*domain.AccountLabelRecord, error) {
	var r domain.AccountLabelRecord
	var fundedBy, fundedByTx *string
	var fundedByTime *int64

	err := row.Scan(
		&r.Address,
		&r.Found,
		&r.Label,
		&r.Tags,
		&fundedBy,
		&fundedByTx,
		&fundedByTime,
		&r.ActiveAgeDays,
		&r.FetchedAt,
	)
	if err != nil {
		return nil, err
	}

	if fundedBy != nil {
		r.FundedBy = &domain.FundedBy{Address: *fundedBy}
		if fundedByTx != nil {
			r.FundedBy.TxHash = *fundedByTx
		}
		if fundedByTime != nil {
			r.FundedBy.BlockTime = *fundedByTime
		}
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}

	return &r, nil
}
