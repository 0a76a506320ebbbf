package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/storage"
)

func testAlert(sig, mint string, at time.Time) *domain.AlertRecord {
	return &domain.AlertRecord{
		ID:           uuid.NewString(),
		Type:         domain.AlertTypeLPAdd,
		Chain:        "solana",
		Pair:         "MEME/SOL",
		TokenMint:    mint,
		PoolAddress:  "pool-" + mint,
		TxSignature:  sig,
		ValueSOL:     500,
		ValueUSD:     75000,
		LPSOLBefore:  3,
		LPSOLAfter:   503,
		MarketCapUSD: 100000,
		PairAgeHours: 0.2,
		IsNewPool:    true,
		Passed:       true,
		Priority:     "HIGH",
		Mode:         domain.ModeTest,
		TriggeredAt:  at,
	}
}

func TestAlertStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	a := testAlert("sig1", "mint1", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, store.Insert(ctx, a))

	got, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.TxSignature, got.TxSignature)
	assert.Equal(t, a.Pair, got.Pair)
	assert.Equal(t, a.ValueSOL, got.ValueSOL)
	assert.True(t, got.IsNewPool)
	assert.False(t, got.CreatedAt.IsZero(), "created_at must be set by the database")

	got, err = store.GetBySignature(ctx, "sig1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestAlertStore_DuplicateSignature(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testAlert("sig1", "mint1", time.Now())))

	err := store.Insert(ctx, testAlert("sig1", "mint1", time.Now()))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAlertStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.AlertRecord{ID: uuid.NewString()}), storage.ErrInvalidInput)
}

func TestAlertStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetBySignature(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAlertStore_GetByTokenMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, testAlert("sig2", "mint1", base.Add(time.Minute))))
	require.NoError(t, store.Insert(ctx, testAlert("sig1", "mint1", base)))
	require.NoError(t, store.Insert(ctx, testAlert("sig3", "mint2", base)))

	result, err := store.GetByTokenMint(ctx, "mint1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "sig1", result[0].TxSignature, "expected triggered_at ASC ordering")
	assert.Equal(t, "sig2", result[1].TxSignature)
}

func TestAlertStore_GetRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, sig := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.Insert(ctx, testAlert(sig, "mint1", base.Add(time.Duration(i)*time.Minute))))
	}

	result, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "s3", result[0].TxSignature, "expected newest first")
	assert.Equal(t, "s2", result[1].TxSignature)
}
