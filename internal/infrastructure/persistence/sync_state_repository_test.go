package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSyncStateRepository_GetAbsent(t *testing.T) {
	repo := NewGormSyncStateRepository(newTestDB(t))
	_, err := repo.Get(context.Background(), importsync.StreamOrders)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSyncStateRepository_AdvanceCreatesAndMovesForward(t *testing.T) {
	repo := NewGormSyncStateRepository(newTestDB(t))
	ctx := context.Background()
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Advance(ctx, importsync.StreamOrders, day, 10))

	state, err := repo.Get(ctx, importsync.StreamOrders)
	require.NoError(t, err)
	assert.Equal(t, importsync.StreamOrders, state.Kind)
	assert.Equal(t, int64(10), state.LastExternalID)
	assert.True(t, state.LastImportedDate.Equal(day))

	// Same day, higher ID moves the cursor.
	require.NoError(t, repo.Advance(ctx, importsync.StreamOrders, day, 25))
	state, err = repo.Get(ctx, importsync.StreamOrders)
	require.NoError(t, err)
	assert.Equal(t, int64(25), state.LastExternalID)

	// Later day resets the ID downward legitimately.
	require.NoError(t, repo.Advance(ctx, importsync.StreamOrders, day.AddDate(0, 0, 1), 3))
	state, err = repo.Get(ctx, importsync.StreamOrders)
	require.NoError(t, err)
	assert.Equal(t, int64(3), state.LastExternalID)
	assert.True(t, state.LastImportedDate.Equal(day.AddDate(0, 0, 1)))
}

func TestGormSyncStateRepository_AdvanceNeverMovesBackward(t *testing.T) {
	repo := NewGormSyncStateRepository(newTestDB(t))
	ctx := context.Background()
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Advance(ctx, importsync.StreamExpenses, day, 100))

	// Re-running a historical window must not regress the cursor.
	require.NoError(t, repo.Advance(ctx, importsync.StreamExpenses, day.AddDate(0, 0, -5), 999))
	require.NoError(t, repo.Advance(ctx, importsync.StreamExpenses, day, 50))

	state, err := repo.Get(ctx, importsync.StreamExpenses)
	require.NoError(t, err)
	assert.Equal(t, int64(100), state.LastExternalID)
	assert.True(t, state.LastImportedDate.Equal(day))
}

func TestGormSyncStateRepository_KindsAreIndependent(t *testing.T) {
	repo := NewGormSyncStateRepository(newTestDB(t))
	ctx := context.Background()
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Advance(ctx, importsync.StreamOrders, day, 7))
	_, err := repo.Get(ctx, importsync.StreamExpenses)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
