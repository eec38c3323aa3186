// Package access contains the access-control domain: the closed set of
// entity kinds, the parent-relation graph used for grant inheritance, and
// the contracts for resolving which records a user may see.
package access

import (
	"fmt"

	"github.com/backoffice/backend/internal/domain/shared"
)

// EntityKind identifies one of the access-controlled entity types.
// The set is closed; adding a kind requires a relation-graph entry.
type EntityKind string

const (
	KindBrand       EntityKind = "brand"
	KindProduct     EntityKind = "product"
	KindProductItem EntityKind = "product_item"
	KindOrder       EntityKind = "order"
	KindOrderItem   EntityKind = "order_item"
	KindExpense     EntityKind = "expense"
	KindCustomer    EntityKind = "customer"
	KindAddress     EntityKind = "address"

	// Shared reference kinds. These are not access-scoped per row; the
	// gate grants them to any user with brand or product access.
	KindCategory    EntityKind = "category"
	KindGender      EntityKind = "gender"
	KindExpenseType EntityKind = "expense_type"
)

// AllKinds lists every access-controlled entity kind
var AllKinds = []EntityKind{
	KindBrand, KindProduct, KindProductItem,
	KindOrder, KindOrderItem, KindExpense,
	KindCustomer, KindAddress,
}

// SharedReferenceKinds lists the kinds governed by the any-brand-or-product rule
var SharedReferenceKinds = []EntityKind{KindCategory, KindGender, KindExpenseType}

// IsValid returns true if k is a known access-controlled kind
func (k EntityKind) IsValid() bool {
	switch k {
	case KindBrand, KindProduct, KindProductItem, KindOrder, KindOrderItem,
		KindExpense, KindCustomer, KindAddress:
		return true
	default:
		return false
	}
}

// IsSharedReference returns true for kinds covered by the shared-reference rule
func (k EntityKind) IsSharedReference() bool {
	switch k {
	case KindCategory, KindGender, KindExpenseType:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityKind
func (k EntityKind) String() string {
	return string(k)
}

// ParentRelation declares the single inheritance edge of an entity kind:
// rows of the kind are accessible when the row their ForeignKey points at
// is accessible.
type ParentRelation struct {
	Parent     EntityKind
	ForeignKey string
}

// RelationGraph holds the parent-relation declarations for all kinds.
// It is immutable after construction and guaranteed cycle-free.
type RelationGraph struct {
	parents     map[EntityKind]ParentRelation
	descendants map[EntityKind][]EntityKind
}

// NewRelationGraph builds a RelationGraph from parent declarations.
// It fails fast with a configuration error when a declaration references
// an unknown kind or introduces a cycle.
func NewRelationGraph(parents map[EntityKind]ParentRelation) (*RelationGraph, error) {
	for kind, rel := range parents {
		if !kind.IsValid() {
			return nil, shared.NewDomainError("CONFIGURATION_ERROR",
				fmt.Sprintf("parent relation declared for unknown kind %q", kind))
		}
		if !rel.Parent.IsValid() {
			return nil, shared.NewDomainError("CONFIGURATION_ERROR",
				fmt.Sprintf("kind %q declares unknown parent %q", kind, rel.Parent))
		}
		if rel.ForeignKey == "" {
			return nil, shared.NewDomainError("CONFIGURATION_ERROR",
				fmt.Sprintf("kind %q declares a parent without a foreign key", kind))
		}
	}

	// Walk up from every kind; revisiting a kind on the same walk is a cycle.
	for start := range parents {
		seen := map[EntityKind]bool{start: true}
		cur := start
		for {
			rel, ok := parents[cur]
			if !ok {
				break
			}
			if seen[rel.Parent] {
				return nil, shared.NewDomainError("CONFIGURATION_ERROR",
					fmt.Sprintf("parent relation cycle detected through kind %q", rel.Parent))
			}
			seen[rel.Parent] = true
			cur = rel.Parent
		}
	}

	g := &RelationGraph{
		parents:     make(map[EntityKind]ParentRelation, len(parents)),
		descendants: make(map[EntityKind][]EntityKind),
	}
	for kind, rel := range parents {
		g.parents[kind] = rel
	}
	// Precompute transitive descendants for cache invalidation cascades.
	for _, kind := range AllKinds {
		cur := kind
		for {
			rel, ok := g.parents[cur]
			if !ok {
				break
			}
			g.descendants[rel.Parent] = append(g.descendants[rel.Parent], kind)
			cur = rel.Parent
		}
	}
	return g, nil
}

// DefaultRelationGraph returns the production inheritance graph:
// Brand -> Product -> ProductItem -> OrderItem, Product -> Expense.
// Orders, customers and addresses carry direct grants only.
func DefaultRelationGraph() *RelationGraph {
	g, err := NewRelationGraph(map[EntityKind]ParentRelation{
		KindProduct:     {Parent: KindBrand, ForeignKey: "brand_id"},
		KindProductItem: {Parent: KindProduct, ForeignKey: "product_id"},
		KindExpense:     {Parent: KindProduct, ForeignKey: "product_id"},
		KindOrderItem:   {Parent: KindProductItem, ForeignKey: "product_item_id"},
	})
	if err != nil {
		// The default graph is a compile-time constant; a cycle here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return g
}

// Parent returns the parent relation declared for kind, if any
func (g *RelationGraph) Parent(kind EntityKind) (ParentRelation, bool) {
	rel, ok := g.parents[kind]
	return rel, ok
}

// Descendants returns every kind that inherits, directly or transitively,
// from the given kind. Used to cascade cache invalidation.
func (g *RelationGraph) Descendants(kind EntityKind) []EntityKind {
	return g.descendants[kind]
}
