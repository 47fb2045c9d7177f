package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

func TestBatchStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBatchStore(pool)
	ctx := context.Background()

	record := &domain.BatchRecord{
		BatchID:      "batch-abc",
		CreatedAt:    1700000000,
		OutcomeCount: 120,
		TradesPerSim: 120,
		Requested:    5000,
		Completed:    5000,
		Seed:         42,
		UnstableRuns: 0,
	}

	err := store.Insert(ctx, record)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "batch-abc")
	require.NoError(t, err)
	require.Equal(t, record, got)
}

func TestBatchStore_Insert_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBatchStore(pool)
	ctx := context.Background()

	record := &domain.BatchRecord{BatchID: "batch-dup", Requested: 100, Completed: 100}

	require.NoError(t, store.Insert(ctx, record))

	err := store.Insert(ctx, record)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBatchStore_Insert_Invalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBatchStore(pool)
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Insert(ctx, &domain.BatchRecord{}), storage.ErrInvalidInput)
}

func TestBatchStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBatchStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBatchStore_GetAll_Ordering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBatchStore(pool)
	ctx := context.Background()

	records := []*domain.BatchRecord{
		{BatchID: "batch-3", CreatedAt: 300, Requested: 10, Completed: 10},
		{BatchID: "batch-1", CreatedAt: 100, Requested: 10, Completed: 10},
		{BatchID: "batch-2", CreatedAt: 200, Requested: 10, Completed: 7},
	}
	for _, r := range records {
		require.NoError(t, store.Insert(ctx, r))
	}

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "batch-1", got[0].BatchID)
	require.Equal(t, "batch-2", got[1].BatchID)
	require.Equal(t, "batch-3", got[2].BatchID)
}

func TestBatchStore_PartialBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBatchStore(pool)
	ctx := context.Background()

	record := &domain.BatchRecord{
		BatchID:      "batch-partial",
		CreatedAt:    1700000000,
		OutcomeCount: 50,
		TradesPerSim: 50,
		Requested:    5000,
		Completed:    1234,
		Seed:         7,
		UnstableRuns: 2,
	}
	require.NoError(t, store.Insert(ctx, record))

	got, err := store.GetByID(ctx, "batch-partial")
	require.NoError(t, err)
	require.Equal(t, 1234, got.Completed)
	require.Equal(t, 5000, got.Requested)
	require.Equal(t, 2, got.UnstableRuns)
}
