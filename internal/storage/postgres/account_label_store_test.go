package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/storage"
)

func TestAccountLabelStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountLabelStore(pool)

	rec := &domain.AccountLabelRecord{
		Address: "wallet1",
		Found:   true,
		Label:   ptr("Binance Hot Wallet"),
		Tags:    []string{"exchange", "cex"},
		FundedBy: &domain.FundedBy{
			Address:   "funder1",
			TxHash:    "tx1",
			BlockTime: 1700000000,
		},
		ActiveAgeDays: ptr(420),
		FetchedAt:     1700000000000,
	}

	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.GetByAddress(ctx, "wallet1")
	require.NoError(t, err)

	assert.Equal(t, rec.Address, got.Address)
	assert.True(t, got.Found)
	require.NotNil(t, got.Label)
	assert.Equal(t, "Binance Hot Wallet", *got.Label)
	assert.Equal(t, []string{"exchange", "cex"}, got.Tags)
	require.NotNil(t, got.FundedBy)
	assert.Equal(t, *rec.FundedBy, *got.FundedBy)
	require.NotNil(t, got.ActiveAgeDays)
	assert.Equal(t, 420, *got.ActiveAgeDays)
	assert.Equal(t, rec.FetchedAt, got.FetchedAt)
}

func TestAccountLabelStore_UpsertReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountLabelStore(pool)

	require.NoError(t, store.Upsert(ctx, &domain.AccountLabelRecord{Address: "w", Found: false, FetchedAt: 1}))
	require.NoError(t, store.Upsert(ctx, &domain.AccountLabelRecord{Address: "w", Found: true, Label: ptr("Orca"), FetchedAt: 2}))

	got, err := store.GetByAddress(ctx, "w")
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "Orca", *got.Label)
	assert.Nil(t, got.Tags)
	assert.Nil(t, got.FundedBy)
	assert.Equal(t, int64(2), got.FetchedAt)
}

func TestAccountLabelStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewAccountLabelStore(pool).GetByAddress(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAccountLabelStore_DeleteOlderThan(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountLabelStore(pool)
	require.NoError(t, store.Upsert(ctx, &domain.AccountLabelRecord{Address: "old", FetchedAt: 100}))
	require.NoError(t, store.Upsert(ctx, &domain.AccountLabelRecord{Address: "new", FetchedAt: 300}))

	n, err := store.DeleteOlderThan(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.GetByAddress(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
