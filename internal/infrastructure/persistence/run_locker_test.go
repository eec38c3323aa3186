package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMemoryRunLocker_SerializesPerKind(t *testing.T) {
	locker := NewMemoryRunLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, importsync.StreamOrders)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, importsync.StreamOrders)
	assert.ErrorIs(t, err, shared.ErrRunInProgress)

	// A different stream kind is an independent lock.
	releaseExpenses, err := locker.Acquire(ctx, importsync.StreamExpenses)
	require.NoError(t, err)
	releaseExpenses()

	release()
	release2, err := locker.Acquire(ctx, importsync.StreamOrders)
	require.NoError(t, err)
	release2()
}

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestAdvisoryRunLocker_AcquireAndRelease(t *testing.T) {
	db, mock := newMockPostgres(t)
	locker := NewAdvisoryRunLocker(db)

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec("SELECT pg_advisory_unlock").
		WillReturnResult(sqlmock.NewResult(0, 0))

	release, err := locker.Acquire(context.Background(), importsync.StreamOrders)
	require.NoError(t, err)
	release()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryRunLocker_HeldLockIsRunInProgress(t *testing.T) {
	db, mock := newMockPostgres(t)
	locker := NewAdvisoryRunLocker(db)

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	_, err := locker.Acquire(context.Background(), importsync.StreamOrders)
	assert.ErrorIs(t, err, shared.ErrRunInProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockKey_StableAndDistinct(t *testing.T) {
	assert.Equal(t, lockKey(importsync.StreamOrders), lockKey(importsync.StreamOrders))
	assert.NotEqual(t, lockKey(importsync.StreamOrders), lockKey(importsync.StreamExpenses))
}
