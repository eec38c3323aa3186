package accessapp

import (
	"context"
	"errors"
	"testing"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePerms struct {
	allowed map[uuid.UUID]map[string]bool
}

func newFakePerms() *fakePerms {
	return &fakePerms{allowed: make(map[uuid.UUID]map[string]bool)}
}

func (f *fakePerms) allow(userID uuid.UUID, permissions ...string) {
	if f.allowed[userID] == nil {
		f.allowed[userID] = make(map[string]bool)
	}
	for _, p := range permissions {
		f.allowed[userID][p] = true
	}
}

func (f *fakePerms) HasPermission(_ context.Context, _ access.TeamContext, userID uuid.UUID, permission string) (bool, error) {
	return f.allowed[userID][permission], nil
}

var _ access.PermissionChecker = (*fakePerms)(nil)

func newTestGate(fx *catalogFixture, perms access.PermissionChecker) *Gate {
	resolver := NewGraphResolver(access.DefaultRelationGraph(), fx.grants, fx.ids)
	return NewGate(resolver, perms, fx.grants, fx.ids, nil)
}

func TestGate_NilPrincipalIsUnauthorized(t *testing.T) {
	fx := newCatalogFixture()
	gate := newTestGate(fx, newFakePerms())

	err := gate.Authorize(context.Background(), access.TeamContext{}, nil,
		access.ActionView, access.KindBrand, &fx.brand1)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.True(t, IsAuthRequired(err))
	assert.False(t, IsForbidden(err))
}

func TestGate_MissingPermissionIsForbidden(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	fx.grants.grant(user, access.KindBrand, fx.brand1)
	gate := newTestGate(fx, newFakePerms())

	err := gate.Authorize(context.Background(), access.TeamContext{},
		&access.Principal{UserID: user}, access.ActionView, access.KindBrand, &fx.brand1)
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.True(t, IsForbidden(err))
}

func TestGate_MissingRecordIsNotFoundForEveryone(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	perms := newFakePerms()
	perms.allow(user, "view:brand")
	fx.grants.grant(user, access.KindBrand, fx.brand1)
	gate := newTestGate(fx, perms)

	ghost := uuid.New()
	err := gate.Authorize(context.Background(), access.TeamContext{},
		&access.Principal{UserID: user}, access.ActionView, access.KindBrand, &ghost)
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.False(t, errors.Is(err, shared.ErrForbidden))
}

func TestGate_ExistingInaccessibleRecordIsForbidden(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	perms := newFakePerms()
	perms.allow(user, "view:brand")
	fx.grants.grant(user, access.KindBrand, fx.brand1)
	gate := newTestGate(fx, perms)

	err := gate.Authorize(context.Background(), access.TeamContext{},
		&access.Principal{UserID: user}, access.ActionView, access.KindBrand, &fx.brand2)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGate_AccessibleRecordPasses(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	perms := newFakePerms()
	perms.allow(user, "view:brand", "view:product")
	fx.grants.grant(user, access.KindBrand, fx.brand1)
	gate := newTestGate(fx, perms)
	ctx := context.Background()
	principal := &access.Principal{UserID: user}

	require.NoError(t, gate.Authorize(ctx, access.TeamContext{}, principal,
		access.ActionView, access.KindBrand, &fx.brand1))

	// Inherited access passes the same gate.
	require.NoError(t, gate.Authorize(ctx, access.TeamContext{}, principal,
		access.ActionView, access.KindProduct, &fx.product2))
}

func TestGate_GlobalAdminBypassesEverything(t *testing.T) {
	fx := newCatalogFixture()
	gate := newTestGate(fx, newFakePerms())
	admin := &access.Principal{UserID: uuid.New(), IsGlobalAdmin: true}

	require.NoError(t, gate.Authorize(context.Background(), access.TeamContext{}, admin,
		access.ActionView, access.KindBrand, &fx.brand2))
}

func TestGate_ListActionSkipsRecordCheck(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	perms := newFakePerms()
	perms.allow(user, "viewAny:order")
	gate := newTestGate(fx, perms)

	// No grants at all: listing is allowed, the result set is just empty.
	require.NoError(t, gate.Authorize(context.Background(), access.TeamContext{},
		&access.Principal{UserID: user}, access.ActionViewAny, access.KindOrder, nil))
}

func TestGate_SharedReferenceRequiresAnyCatalogAccess(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	perms := newFakePerms()
	perms.allow(user, "view:reference", "viewAny:reference")
	gate := newTestGate(fx, perms)
	ctx := context.Background()
	principal := &access.Principal{UserID: user}
	categoryID := uuid.New()

	// Instance view without any brand/product grant is forbidden.
	err := gate.Authorize(ctx, access.TeamContext{}, principal,
		access.ActionView, access.KindCategory, &categoryID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	// Listing stays allowed; the query layer returns an empty set.
	require.NoError(t, gate.Authorize(ctx, access.TeamContext{}, principal,
		access.ActionViewAny, access.KindCategory, nil))

	// Any product grant opens shared reference data.
	fx.grants.grant(user, access.KindProduct, fx.product3)
	require.NoError(t, gate.Authorize(ctx, access.TeamContext{}, principal,
		access.ActionView, access.KindCategory, &categoryID))
}

func TestGate_HasAnyCatalogAccess(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	gate := newTestGate(fx, newFakePerms())
	ctx := context.Background()

	ok, err := gate.HasAnyCatalogAccess(ctx, access.Principal{UserID: user})
	require.NoError(t, err)
	assert.False(t, ok)

	fx.grants.grant(user, access.KindBrand, fx.brand1)
	ok, err = gate.HasAnyCatalogAccess(ctx, access.Principal{UserID: user})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.HasAnyCatalogAccess(ctx, access.Principal{UserID: uuid.New(), IsGlobalAdmin: true})
	require.NoError(t, err)
	assert.True(t, ok)
}
