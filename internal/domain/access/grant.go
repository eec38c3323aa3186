package access

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// GrantLevel expresses how much authority a direct grant carries
type GrantLevel int

const (
	// GrantLevelView allows read access to the granted record
	GrantLevelView GrantLevel = 1
	// GrantLevelManage allows read and write access to the granted record
	GrantLevelManage GrantLevel = 2
)

// Grant is a direct, non-inherited authorization of a user on one record.
// Grants are soft-deleted on revocation so audit history stays intact;
// (user, kind, entity) is unique among live grants.
type Grant struct {
	shared.BaseEntity
	UserID    uuid.UUID
	Kind      EntityKind
	EntityID  uuid.UUID
	Level     GrantLevel
	DeletedAt *time.Time
}

// NewGrant creates a live grant for a user on an entity
func NewGrant(userID uuid.UUID, kind EntityKind, entityID uuid.UUID, level GrantLevel) (*Grant, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown entity kind "+kind.String())
	}
	if userID == uuid.Nil || entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "grant requires a user and an entity")
	}
	return &Grant{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Kind:       kind,
		EntityID:   entityID,
		Level:      level,
	}, nil
}

// IsLive returns true if the grant has not been revoked
func (g *Grant) IsLive() bool {
	return g.DeletedAt == nil
}

// GrantRepository persists direct access grants
type GrantRepository interface {
	// Save creates a grant; a live duplicate surfaces ErrAlreadyExists
	Save(ctx context.Context, grant *Grant) error

	// Revoke soft-deletes the live grant for (user, kind, entity).
	// Revoking an absent grant is a no-op.
	Revoke(ctx context.Context, userID uuid.UUID, kind EntityKind, entityID uuid.UUID) error

	// LiveEntityIDs returns the entity IDs of all live grants for a user and kind
	LiveEntityIDs(ctx context.Context, userID uuid.UUID, kind EntityKind) ([]uuid.UUID, error)

	// HasLiveGrant reports whether a live grant exists for (user, kind, entity)
	HasLiveGrant(ctx context.Context, userID uuid.UUID, kind EntityKind, entityID uuid.UUID) (bool, error)

	// CountLiveForKinds counts a user's live grants across the given kinds.
	// The gate uses this for the any-brand-or-product shared-reference rule.
	CountLiveForKinds(ctx context.Context, userID uuid.UUID, kinds []EntityKind) (int64, error)
}
