package access

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the opaque acting user: an ID plus a global-admin flag.
// A nil *Principal means no session at all (authentication required).
type Principal struct {
	UserID        uuid.UUID
	IsGlobalAdmin bool
}

// Action is a coarse operation name used for permission checks
type Action string

const (
	ActionViewAny Action = "viewAny"
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
)

// IsInstanceAction returns true for actions targeting a single record
func (a Action) IsInstanceAction() bool {
	switch a {
	case ActionView, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Permission renders the coarse permission name for an action on a kind,
// e.g. "view:brand".
func Permission(action Action, kind EntityKind) string {
	return string(action) + ":" + kind.String()
}

// TeamContext scopes coarse permission checks to an active tenant team.
// It is threaded explicitly through call signatures, never held in
// package-level state.
type TeamContext struct {
	TeamID uuid.UUID
}

// PermissionChecker is the RBAC collaborator. It answers coarse
// role-derived permission questions; record-level access is the
// resolver's job.
type PermissionChecker interface {
	HasPermission(ctx context.Context, team TeamContext, userID uuid.UUID, permission string) (bool, error)
}

// EntityIDSource is the read-only port the resolver uses to enumerate
// records of a kind. Implementations map each EntityKind to its table
// through an explicit, startup-validated model table.
type EntityIDSource interface {
	// AllIDs returns every ID of the given kind (global-admin path)
	AllIDs(ctx context.Context, kind EntityKind) ([]uuid.UUID, error)

	// IDsByParent returns IDs of kind whose foreignKey column is in parentIDs.
	// An empty parentIDs slice must return no rows.
	IDsByParent(ctx context.Context, kind EntityKind, foreignKey string, parentIDs []uuid.UUID) ([]uuid.UUID, error)

	// ParentRef returns the foreignKey value of one row. The bool is false
	// when the row does not exist or the reference is null.
	ParentRef(ctx context.Context, kind EntityKind, foreignKey string, id uuid.UUID) (uuid.UUID, bool, error)

	// Exists reports whether a row of the kind exists
	Exists(ctx context.Context, kind EntityKind, id uuid.UUID) (bool, error)
}

// Resolver computes the set of records a user may reach for a kind:
// direct grants plus everything inherited down the parent-relation chain.
type Resolver interface {
	// Resolve returns the deduplicated accessible ID set. Global admins
	// get every ID of the kind. An empty result means deny-all, never
	// allow-all.
	Resolve(ctx context.Context, principal Principal, kind EntityKind) ([]uuid.UUID, error)

	// IsAccessible checks one record without materializing the full set
	IsAccessible(ctx context.Context, principal Principal, kind EntityKind, id uuid.UUID) (bool, error)
}

// Cache memoizes resolved ID sets per (user, kind). Implementations must
// be safe for concurrent readers and a single invalidator.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID, kind EntityKind) ([]uuid.UUID, bool)
	Set(ctx context.Context, userID uuid.UUID, kind EntityKind, ids []uuid.UUID)
	Invalidate(ctx context.Context, userID uuid.UUID, kind EntityKind)
	InvalidateUser(ctx context.Context, userID uuid.UUID)
	InvalidateAll(ctx context.Context)
}
