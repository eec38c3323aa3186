package accessapp

import (
	"context"
	"testing"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Fakes shared by the accessapp tests
// ============================================

type grantKey struct {
	user uuid.UUID
	kind access.EntityKind
}

type fakeGrantRepo struct {
	live map[grantKey][]uuid.UUID
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{live: make(map[grantKey][]uuid.UUID)}
}

func (f *fakeGrantRepo) grant(user uuid.UUID, kind access.EntityKind, entity uuid.UUID) {
	k := grantKey{user, kind}
	f.live[k] = append(f.live[k], entity)
}

func (f *fakeGrantRepo) Save(_ context.Context, g *access.Grant) error {
	for _, id := range f.live[grantKey{g.UserID, g.Kind}] {
		if id == g.EntityID {
			return nil
		}
	}
	f.grant(g.UserID, g.Kind, g.EntityID)
	return nil
}

func (f *fakeGrantRepo) Revoke(_ context.Context, userID uuid.UUID, kind access.EntityKind, entityID uuid.UUID) error {
	k := grantKey{userID, kind}
	kept := f.live[k][:0]
	for _, id := range f.live[k] {
		if id != entityID {
			kept = append(kept, id)
		}
	}
	f.live[k] = kept
	return nil
}

func (f *fakeGrantRepo) LiveEntityIDs(_ context.Context, userID uuid.UUID, kind access.EntityKind) ([]uuid.UUID, error) {
	return f.live[grantKey{userID, kind}], nil
}

func (f *fakeGrantRepo) HasLiveGrant(_ context.Context, userID uuid.UUID, kind access.EntityKind, entityID uuid.UUID) (bool, error) {
	for _, id := range f.live[grantKey{userID, kind}] {
		if id == entityID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGrantRepo) CountLiveForKinds(_ context.Context, userID uuid.UUID, kinds []access.EntityKind) (int64, error) {
	var n int64
	for _, kind := range kinds {
		n += int64(len(f.live[grantKey{userID, kind}]))
	}
	return n, nil
}

var _ access.GrantRepository = (*fakeGrantRepo)(nil)

type fakeIDSource struct {
	all     map[access.EntityKind][]uuid.UUID
	parents map[access.EntityKind]map[uuid.UUID]uuid.UUID
}

func newFakeIDSource() *fakeIDSource {
	return &fakeIDSource{
		all:     make(map[access.EntityKind][]uuid.UUID),
		parents: make(map[access.EntityKind]map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeIDSource) add(kind access.EntityKind, id uuid.UUID, parent uuid.UUID) {
	f.all[kind] = append(f.all[kind], id)
	if parent != uuid.Nil {
		if f.parents[kind] == nil {
			f.parents[kind] = make(map[uuid.UUID]uuid.UUID)
		}
		f.parents[kind][id] = parent
	}
}

func (f *fakeIDSource) AllIDs(_ context.Context, kind access.EntityKind) ([]uuid.UUID, error) {
	return f.all[kind], nil
}

func (f *fakeIDSource) IDsByParent(_ context.Context, kind access.EntityKind, _ string, parentIDs []uuid.UUID) ([]uuid.UUID, error) {
	want := make(map[uuid.UUID]bool, len(parentIDs))
	for _, p := range parentIDs {
		want[p] = true
	}
	var out []uuid.UUID
	for id, parent := range f.parents[kind] {
		if want[parent] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeIDSource) ParentRef(_ context.Context, kind access.EntityKind, _ string, id uuid.UUID) (uuid.UUID, bool, error) {
	parent, ok := f.parents[kind][id]
	return parent, ok, nil
}

func (f *fakeIDSource) Exists(_ context.Context, kind access.EntityKind, id uuid.UUID) (bool, error) {
	for _, known := range f.all[kind] {
		if known == id {
			return true, nil
		}
	}
	return false, nil
}

var _ access.EntityIDSource = (*fakeIDSource)(nil)

// catalogFixture builds a two-brand world:
//
//	brand1 -> product1 -> item1 -> orderItem1
//	       -> product2
//	brand1's product1 also carries expense1
//	brand2 -> product3
type catalogFixture struct {
	ids    *fakeIDSource
	grants *fakeGrantRepo

	brand1, brand2                uuid.UUID
	product1, product2, product3  uuid.UUID
	item1, orderItem1             uuid.UUID
	expense1, order1              uuid.UUID
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		ids:        newFakeIDSource(),
		grants:     newFakeGrantRepo(),
		brand1:     uuid.New(),
		brand2:     uuid.New(),
		product1:   uuid.New(),
		product2:   uuid.New(),
		product3:   uuid.New(),
		item1:      uuid.New(),
		orderItem1: uuid.New(),
		expense1:   uuid.New(),
		order1:     uuid.New(),
	}
	f.ids.add(access.KindBrand, f.brand1, uuid.Nil)
	f.ids.add(access.KindBrand, f.brand2, uuid.Nil)
	f.ids.add(access.KindProduct, f.product1, f.brand1)
	f.ids.add(access.KindProduct, f.product2, f.brand1)
	f.ids.add(access.KindProduct, f.product3, f.brand2)
	f.ids.add(access.KindProductItem, f.item1, f.product1)
	f.ids.add(access.KindOrderItem, f.orderItem1, f.item1)
	f.ids.add(access.KindExpense, f.expense1, f.product1)
	f.ids.add(access.KindOrder, f.order1, uuid.Nil)
	return f
}

// ============================================
// GraphResolver Tests
// ============================================

func TestGraphResolver_BrandGrantCascades(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	fx.grants.grant(user, access.KindBrand, fx.brand1)

	resolver := NewGraphResolver(access.DefaultRelationGraph(), fx.grants, fx.ids)
	principal := access.Principal{UserID: user}
	ctx := context.Background()

	brands, err := resolver.Resolve(ctx, principal, access.KindBrand)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{fx.brand1}, brands)

	products, err := resolver.Resolve(ctx, principal, access.KindProduct)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{fx.product1, fx.product2}, products)

	items, err := resolver.Resolve(ctx, principal, access.KindProductItem)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{fx.item1}, items)

	orderItems, err := resolver.Resolve(ctx, principal, access.KindOrderItem)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{fx.orderItem1}, orderItems)

	expenses, err := resolver.Resolve(ctx, principal, access.KindExpense)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{fx.expense1}, expenses)
}

func TestGraphResolver_EmptyMeansDenyAll(t *testing.T) {
	fx := newCatalogFixture()
	resolver := NewGraphResolver(access.DefaultRelationGraph(), fx.grants, fx.ids)
	principal := access.Principal{UserID: uuid.New()}

	for _, kind := range access.AllKinds {
		ids, err := resolver.Resolve(context.Background(), principal, kind)
		require.NoError(t, err)
		assert.Empty(t, ids, "kind %s should deny all without grants", kind)
	}
}

func TestGraphResolver_OrdersDoNotInherit(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	fx.grants.grant(user, access.KindBrand, fx.brand1)

	resolver := NewGraphResolver(access.DefaultRelationGraph(), fx.grants, fx.ids)
	orders, err := resolver.Resolve(context.Background(), access.Principal{UserID: user}, access.KindOrder)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestGraphResolver_DirectAndInheritedDeduplicate(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	fx.grants.grant(user, access.KindBrand, fx.brand1)
	// product1 is both inherited through brand1 and granted directly.
	fx.grants.grant(user, access.KindProduct, fx.product1)
	fx.grants.grant(user, access.KindProduct, fx.product3)

	resolver := NewGraphResolver(access.DefaultRelationGraph(), fx.grants, fx.ids)
	products, err := resolver.Resolve(context.Background(), access.Principal{UserID: user}, access.KindProduct)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{fx.product1, fx.product2, fx.product3}, products)
}

func TestGraphResolver_GlobalAdminGetsAll(t *testing.T) {
	fx := newCatalogFixture()
	resolver := NewGraphResolver(access.DefaultRelationGraph(), fx.grants, fx.ids)

	products, err := resolver.Resolve(context.Background(),
		access.Principal{UserID: uuid.New(), IsGlobalAdmin: true}, access.KindProduct)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{fx.product1, fx.product2, fx.product3}, products)
}

func TestGraphResolver_RejectsUnknownKind(t *testing.T) {
	fx := newCatalogFixture()
	resolver := NewGraphResolver(access.DefaultRelationGraph(), fx.grants, fx.ids)

	_, err := resolver.Resolve(context.Background(), access.Principal{UserID: uuid.New()}, access.EntityKind("bogus"))
	require.Error(t, err)
}

func TestGraphResolver_IsAccessible(t *testing.T) {
	fx := newCatalogFixture()
	user := uuid.New()
	fx.grants.grant(user, access.KindBrand, fx.brand1)
	fx.grants.grant(user, access.KindOrder, fx.order1)

	resolver := NewGraphResolver(access.DefaultRelationGraph(), fx.grants, fx.ids)
	principal := access.Principal{UserID: user}
	ctx := context.Background()

	tests := []struct {
		name       string
		kind       access.EntityKind
		id         uuid.UUID
		accessible bool
	}{
		{"direct brand grant", access.KindBrand, fx.brand1, true},
		{"other brand", access.KindBrand, fx.brand2, false},
		{"product via brand chain", access.KindProduct, fx.product1, true},
		{"product of other brand", access.KindProduct, fx.product3, false},
		{"order item via three-level chain", access.KindOrderItem, fx.orderItem1, true},
		{"expense via product chain", access.KindExpense, fx.expense1, true},
		{"direct order grant", access.KindOrder, fx.order1, true},
		{"unknown record", access.KindProduct, uuid.New(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.IsAccessible(ctx, principal, tt.kind, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.accessible, got)
		})
	}
}
