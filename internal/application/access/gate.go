package accessapp

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gate is the authorization policy: a coarse role permission combined
// with the resolver's record-level accessibility check.
//
// Outcomes are three-way and never conflated:
//   - nil principal            -> ErrUnauthorized (authentication required)
//   - record does not exist    -> ErrNotFound (regardless of access)
//   - authenticated, no access -> ErrForbidden
//
// List endpoints do not call Authorize per row; they resolve the
// accessible set and return an empty collection on zero access.
type Gate struct {
	resolver access.Resolver
	perms    access.PermissionChecker
	grants   access.GrantRepository
	ids      access.EntityIDSource
	logger   *zap.Logger
}

// NewGate creates an authorization gate
func NewGate(resolver access.Resolver, perms access.PermissionChecker, grants access.GrantRepository, ids access.EntityIDSource, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{resolver: resolver, perms: perms, grants: grants, ids: ids, logger: logger}
}

// Authorize checks whether the principal may perform action on the kind,
// and on the specific record when id is non-nil. The team context scopes
// the coarse RBAC check and is threaded explicitly, never ambient.
func (g *Gate) Authorize(ctx context.Context, team access.TeamContext, principal *access.Principal, action access.Action, kind access.EntityKind, id *uuid.UUID) error {
	if principal == nil {
		return shared.ErrUnauthorized
	}
	if principal.IsGlobalAdmin {
		return nil
	}

	if kind.IsSharedReference() {
		return g.authorizeSharedReference(ctx, team, principal, action)
	}

	ok, err := g.perms.HasPermission(ctx, team, principal.UserID, access.Permission(action, kind))
	if err != nil {
		return err
	}
	if !ok {
		g.logDenied(principal.UserID, action, kind, "missing coarse permission")
		return shared.ErrForbidden
	}

	if !action.IsInstanceAction() || id == nil {
		return nil
	}

	// Existence is checked before access so a missing record is 404 for
	// everyone; only an existing, inaccessible record is 403.
	exists, err := g.ids.Exists(ctx, kind, *id)
	if err != nil {
		return err
	}
	if !exists {
		return shared.ErrNotFound
	}

	accessible, err := g.resolver.IsAccessible(ctx, *principal, kind, *id)
	if err != nil {
		return err
	}
	if !accessible {
		g.logDenied(principal.UserID, action, kind, "record not accessible")
		return shared.ErrForbidden
	}
	return nil
}

// authorizeSharedReference applies the simpler rule for Category, Gender
// and ExpenseType: shared reference data is open to any user holding any
// brand or product access at all, with only the coarse permission checked
// on top. Row-level access is never evaluated for these kinds.
func (g *Gate) authorizeSharedReference(ctx context.Context, team access.TeamContext, principal *access.Principal, action access.Action) error {
	ok, err := g.perms.HasPermission(ctx, team, principal.UserID, string(action)+":reference")
	if err != nil {
		return err
	}
	if !ok {
		g.logDenied(principal.UserID, action, "", "missing coarse permission")
		return shared.ErrForbidden
	}
	if !action.IsInstanceAction() {
		// Listing with zero catalog access falls through to an empty
		// result set at the query layer, not a 403 here.
		return nil
	}
	n, err := g.grants.CountLiveForKinds(ctx, principal.UserID, []access.EntityKind{access.KindBrand, access.KindProduct})
	if err != nil {
		return err
	}
	if n == 0 {
		g.logDenied(principal.UserID, action, "", "no brand or product access")
		return shared.ErrForbidden
	}
	return nil
}

// HasAnyCatalogAccess reports whether the user holds any brand or product
// grant. List layers use this to decide between real rows and an empty
// collection for shared reference kinds.
func (g *Gate) HasAnyCatalogAccess(ctx context.Context, principal access.Principal) (bool, error) {
	if principal.IsGlobalAdmin {
		return true, nil
	}
	n, err := g.grants.CountLiveForKinds(ctx, principal.UserID, []access.EntityKind{access.KindBrand, access.KindProduct})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsAuthRequired reports whether err is the authentication-required outcome
func IsAuthRequired(err error) bool {
	return errors.Is(err, shared.ErrUnauthorized)
}

// IsForbidden reports whether err is the access-denied outcome
func IsForbidden(err error) bool {
	return errors.Is(err, shared.ErrForbidden)
}

func (g *Gate) logDenied(userID uuid.UUID, action access.Action, kind access.EntityKind, reason string) {
	g.logger.Debug("access denied",
		zap.String("user_id", userID.String()),
		zap.String("action", string(action)),
		zap.String("kind", kind.String()),
		zap.String("reason", reason),
	)
}
