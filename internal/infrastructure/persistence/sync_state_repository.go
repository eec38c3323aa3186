package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSyncStateRepository implements importsync.SyncStateRepository using GORM
type GormSyncStateRepository struct {
	db *gorm.DB
}

// NewGormSyncStateRepository creates a new GormSyncStateRepository
func NewGormSyncStateRepository(db *gorm.DB) *GormSyncStateRepository {
	return &GormSyncStateRepository{db: db}
}

// Get returns the checkpoint for a stream kind
func (r *GormSyncStateRepository) Get(ctx context.Context, kind importsync.StreamKind) (*importsync.SyncState, error) {
	var model models.SyncStateModel
	if err := r.db.WithContext(ctx).
		Where("kind = ?", kind.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Advance moves the checkpoint forward inside a transaction. The row is
// locked for the compare so concurrent advances serialize; a cursor at or
// behind the stored checkpoint leaves it untouched.
func (r *GormSyncStateRepository) Advance(ctx context.Context, kind importsync.StreamKind, date time.Time, externalID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("kind = ?", kind.String())
		// sqlite has no row locks; its transactions already serialize writers.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var model models.SyncStateModel
		err := query.First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			model = models.SyncStateModel{
				Kind:             kind.String(),
				LastImportedDate: date,
				LastExternalID:   externalID,
				LastSyncAt:       time.Now(),
			}
			return tx.Create(&model).Error
		}
		if err != nil {
			return err
		}

		state := model.ToDomain()
		if !state.IsAfter(date, externalID) {
			return nil
		}
		return tx.Model(&models.SyncStateModel{}).
			Where("kind = ?", kind.String()).
			Updates(map[string]interface{}{
				"last_imported_date": date,
				"last_external_id":   externalID,
				"last_sync_at":       time.Now(),
			}).Error
	})
}

// Ensure GormSyncStateRepository implements SyncStateRepository
var _ importsync.SyncStateRepository = (*GormSyncStateRepository)(nil)
