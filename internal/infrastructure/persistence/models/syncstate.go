package models

import (
	"time"

	"github.com/backoffice/backend/internal/domain/importsync"
)

// SyncStateModel persists the per-stream import checkpoint
type SyncStateModel struct {
	Kind             string    `gorm:"size:32;primary_key"`
	LastImportedDate time.Time `gorm:"not null"`
	LastExternalID   int64     `gorm:"not null;default:0"`
	LastSyncAt       time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for SyncStateModel
func (SyncStateModel) TableName() string {
	return "sync_states"
}

// ToDomain converts the model to a domain sync state
func (m *SyncStateModel) ToDomain() *importsync.SyncState {
	return &importsync.SyncState{
		Kind:             importsync.StreamKind(m.Kind),
		LastImportedDate: m.LastImportedDate,
		LastExternalID:   m.LastExternalID,
		LastSyncAt:       m.LastSyncAt,
	}
}

// FromDomain populates the model from a domain sync state
func (m *SyncStateModel) FromDomain(s *importsync.SyncState) {
	m.Kind = s.Kind.String()
	m.LastImportedDate = s.LastImportedDate
	m.LastExternalID = s.LastExternalID
	m.LastSyncAt = s.LastSyncAt
}
