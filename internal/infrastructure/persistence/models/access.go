package models

import (
	"time"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessGrantModel persists direct access grants. Revocation is a soft
// delete so audit history keeps referencing the row; the unique index
// includes deleted_at so a revoked grant can be re-granted.
type AccessGrantModel struct {
	BaseModel
	UserID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_grants_user_kind_entity;index"`
	EntityKind string         `gorm:"size:32;not null;uniqueIndex:idx_grants_user_kind_entity"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_grants_user_kind_entity"`
	Level      int            `gorm:"not null;default:1"`
	DeletedAt  gorm.DeletedAt `gorm:"uniqueIndex:idx_grants_user_kind_entity"`
}

// TableName returns the table name for AccessGrantModel
func (AccessGrantModel) TableName() string {
	return "access_grants"
}

// ToDomain converts the model to a domain grant
func (m *AccessGrantModel) ToDomain() *access.Grant {
	var deletedAt *time.Time
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		deletedAt = &t
	}
	return &access.Grant{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Kind:       access.EntityKind(m.EntityKind),
		EntityID:   m.EntityID,
		Level:      access.GrantLevel(m.Level),
		DeletedAt:  deletedAt,
	}
}

// FromDomain populates the model from a domain grant
func (m *AccessGrantModel) FromDomain(g *access.Grant) {
	m.BaseModel.FromDomain(g.BaseEntity)
	m.UserID = g.UserID
	m.EntityKind = g.Kind.String()
	m.EntityID = g.EntityID
	m.Level = int(g.Level)
	if g.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *g.DeletedAt, Valid: true}
	}
}
