package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityKind_IsValid(t *testing.T) {
	tests := []struct {
		kind    EntityKind
		isValid bool
	}{
		{KindBrand, true},
		{KindProduct, true},
		{KindProductItem, true},
		{KindOrder, true},
		{KindOrderItem, true},
		{KindExpense, true},
		{KindCustomer, true},
		{KindAddress, true},
		{KindCategory, false},
		{EntityKind("warehouse"), false},
		{EntityKind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.kind.IsValid())
		})
	}
}

func TestEntityKind_IsSharedReference(t *testing.T) {
	assert.True(t, KindCategory.IsSharedReference())
	assert.True(t, KindGender.IsSharedReference())
	assert.True(t, KindExpenseType.IsSharedReference())
	assert.False(t, KindBrand.IsSharedReference())
	assert.False(t, KindExpense.IsSharedReference())
}

func TestNewRelationGraph_RejectsUnknownKinds(t *testing.T) {
	_, err := NewRelationGraph(map[EntityKind]ParentRelation{
		EntityKind("warehouse"): {Parent: KindBrand, ForeignKey: "brand_id"},
	})
	require.Error(t, err)

	_, err = NewRelationGraph(map[EntityKind]ParentRelation{
		KindProduct: {Parent: EntityKind("tenant"), ForeignKey: "tenant_id"},
	})
	require.Error(t, err)
}

func TestNewRelationGraph_RejectsMissingForeignKey(t *testing.T) {
	_, err := NewRelationGraph(map[EntityKind]ParentRelation{
		KindProduct: {Parent: KindBrand},
	})
	require.Error(t, err)
}

func TestNewRelationGraph_RejectsCycles(t *testing.T) {
	tests := []struct {
		name    string
		parents map[EntityKind]ParentRelation
	}{
		{
			name: "two-node cycle",
			parents: map[EntityKind]ParentRelation{
				KindProduct: {Parent: KindBrand, ForeignKey: "brand_id"},
				KindBrand:   {Parent: KindProduct, ForeignKey: "product_id"},
			},
		},
		{
			name: "self cycle",
			parents: map[EntityKind]ParentRelation{
				KindProduct: {Parent: KindProduct, ForeignKey: "parent_id"},
			},
		},
		{
			name: "three-node cycle",
			parents: map[EntityKind]ParentRelation{
				KindProduct:     {Parent: KindBrand, ForeignKey: "brand_id"},
				KindBrand:       {Parent: KindProductItem, ForeignKey: "item_id"},
				KindProductItem: {Parent: KindProduct, ForeignKey: "product_id"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRelationGraph(tt.parents)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cycle")
		})
	}
}

func TestDefaultRelationGraph_Parents(t *testing.T) {
	g := DefaultRelationGraph()

	rel, ok := g.Parent(KindProduct)
	require.True(t, ok)
	assert.Equal(t, KindBrand, rel.Parent)
	assert.Equal(t, "brand_id", rel.ForeignKey)

	rel, ok = g.Parent(KindOrderItem)
	require.True(t, ok)
	assert.Equal(t, KindProductItem, rel.Parent)

	rel, ok = g.Parent(KindExpense)
	require.True(t, ok)
	assert.Equal(t, KindProduct, rel.Parent)

	// Orders carry direct grants only.
	_, ok = g.Parent(KindOrder)
	assert.False(t, ok)
	_, ok = g.Parent(KindBrand)
	assert.False(t, ok)
}

func TestDefaultRelationGraph_Descendants(t *testing.T) {
	g := DefaultRelationGraph()

	// A brand grant cascades down the whole chain.
	descendants := g.Descendants(KindBrand)
	assert.ElementsMatch(t,
		[]EntityKind{KindProduct, KindProductItem, KindExpense, KindOrderItem},
		descendants)

	assert.ElementsMatch(t,
		[]EntityKind{KindProductItem, KindExpense, KindOrderItem},
		g.Descendants(KindProduct))

	assert.Empty(t, g.Descendants(KindOrder))
	assert.Empty(t, g.Descendants(KindOrderItem))
}

func TestNewGrant_Validation(t *testing.T) {
	_, err := NewGrant(uuid.Nil, KindBrand, uuid.New(), GrantLevelView)
	require.Error(t, err)

	_, err = NewGrant(uuid.New(), EntityKind("bogus"), uuid.New(), GrantLevelView)
	require.Error(t, err)

	g, err := NewGrant(uuid.New(), KindBrand, uuid.New(), GrantLevelManage)
	require.NoError(t, err)
	assert.True(t, g.IsLive())
	assert.Equal(t, GrantLevelManage, g.Level)
}

func TestPermission(t *testing.T) {
	assert.Equal(t, "view:brand", Permission(ActionView, KindBrand))
	assert.Equal(t, "viewAny:expense", Permission(ActionViewAny, KindExpense))
}

func TestAction_IsInstanceAction(t *testing.T) {
	assert.True(t, ActionView.IsInstanceAction())
	assert.True(t, ActionUpdate.IsInstanceAction())
	assert.True(t, ActionDelete.IsInstanceAction())
	assert.False(t, ActionViewAny.IsInstanceAction())
	assert.False(t, ActionCreate.IsInstanceAction())
}
