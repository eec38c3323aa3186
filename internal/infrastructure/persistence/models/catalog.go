package models

import (
	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// BrandModel persists brands; name is the natural key
type BrandModel struct {
	BaseModel
	Name string `gorm:"size:200;not null;uniqueIndex"`
}

// TableName returns the table name for BrandModel
func (BrandModel) TableName() string {
	return "brands"
}

// ToDomain converts the model to a domain brand
func (m *BrandModel) ToDomain() *catalog.Brand {
	return &catalog.Brand{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
	}
}

// FromDomain populates the model from a domain brand
func (m *BrandModel) FromDomain(b *catalog.Brand) {
	m.BaseModel.FromDomain(b.BaseEntity)
	m.Name = b.Name
}

// ProductModel persists products; external_id is the natural key
type ProductModel struct {
	BaseModel
	BrandID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ExternalID int64     `gorm:"not null;uniqueIndex"`
	Name       string    `gorm:"size:200"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null"`
	GenderID   uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for ProductModel
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		BrandID:    m.BrandID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		CategoryID: m.CategoryID,
		GenderID:   m.GenderID,
	}
}

// FromDomain populates the model from a domain product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.BaseModel.FromDomain(p.BaseEntity)
	m.BrandID = p.BrandID
	m.ExternalID = p.ExternalID
	m.Name = p.Name
	m.CategoryID = p.CategoryID
	m.GenderID = p.GenderID
}

// ProductItemModel persists product items; external_item_id is the natural key
type ProductItemModel struct {
	BaseModel
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ExternalItemID int64     `gorm:"not null;uniqueIndex"`
	Name           string    `gorm:"size:200"`
}

// TableName returns the table name for ProductItemModel
func (ProductItemModel) TableName() string {
	return "product_items"
}

// ToDomain converts the model to a domain product item
func (m *ProductItemModel) ToDomain() *catalog.ProductItem {
	return &catalog.ProductItem{
		BaseEntity:     m.BaseModel.ToDomain(),
		ProductID:      m.ProductID,
		ExternalItemID: m.ExternalItemID,
		Name:           m.Name,
	}
}

// FromDomain populates the model from a domain product item
func (m *ProductItemModel) FromDomain(i *catalog.ProductItem) {
	m.BaseModel.FromDomain(i.BaseEntity)
	m.ProductID = i.ProductID
	m.ExternalItemID = i.ExternalItemID
	m.Name = i.Name
}

// CategoryModel persists shared reference categories
type CategoryModel struct {
	BaseModel
	Name string `gorm:"size:100;not null;uniqueIndex"`
}

// TableName returns the table name for CategoryModel
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the model to a domain category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// FromDomain populates the model from a domain category
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.BaseModel.FromDomain(c.BaseEntity)
	m.Name = c.Name
}

// GenderModel persists shared reference genders
type GenderModel struct {
	BaseModel
	Name string `gorm:"size:100;not null;uniqueIndex"`
}

// TableName returns the table name for GenderModel
func (GenderModel) TableName() string {
	return "genders"
}

// ToDomain converts the model to a domain gender
func (m *GenderModel) ToDomain() *catalog.Gender {
	return &catalog.Gender{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// FromDomain populates the model from a domain gender
func (m *GenderModel) FromDomain(g *catalog.Gender) {
	m.BaseModel.FromDomain(g.BaseEntity)
	m.Name = g.Name
}
