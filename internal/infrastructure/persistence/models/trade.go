package models

import (
	"time"

	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// CustomerModel persists customers. Email is unique among rows that have
// one; anonymous customers match on (name, phone).
type CustomerModel struct {
	BaseModel
	Email string `gorm:"size:255;index"`
	Name  string `gorm:"size:200;index"`
	Phone string `gorm:"size:50;index"`
}

// TableName returns the table name for CustomerModel
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain customer
func (m *CustomerModel) ToDomain() *trade.Customer {
	return &trade.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		Email:      m.Email,
		Name:       m.Name,
		Phone:      m.Phone,
	}
}

// FromDomain populates the model from a domain customer
func (m *CustomerModel) FromDomain(c *trade.Customer) {
	m.BaseModel.FromDomain(c.BaseEntity)
	m.Email = c.Email
	m.Name = c.Name
	m.Phone = c.Phone
}

// AddressModel persists deduplicated customer addresses; the dedup key
// is (customer_id, hash).
type AddressModel struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_addresses_customer_hash"`
	Hash       string    `gorm:"size:32;not null;uniqueIndex:idx_addresses_customer_hash"`
	Type       string    `gorm:"size:16;not null"`
	Address    string    `gorm:"size:255"`
	Address2   string    `gorm:"size:255"`
	City       string    `gorm:"size:100"`
	State      string    `gorm:"size:100"`
	Zip        string    `gorm:"size:32"`
	Country    string    `gorm:"size:100"`
}

// TableName returns the table name for AddressModel
func (AddressModel) TableName() string {
	return "addresses"
}

// ToDomain converts the model to a domain address
func (m *AddressModel) ToDomain() *trade.Address {
	return &trade.Address{
		BaseEntity: m.BaseModel.ToDomain(),
		CustomerID: m.CustomerID,
		Type:       trade.AddressType(m.Type),
		Hash:       m.Hash,
		AddressFields: trade.AddressFields{
			Address:  m.Address,
			Address2: m.Address2,
			City:     m.City,
			State:    m.State,
			Zip:      m.Zip,
			Country:  m.Country,
		},
	}
}

// FromDomain populates the model from a domain address
func (m *AddressModel) FromDomain(a *trade.Address) {
	m.BaseModel.FromDomain(a.BaseEntity)
	m.CustomerID = a.CustomerID
	m.Hash = a.Hash
	m.Type = string(a.Type)
	m.Address = a.Address
	m.Address2 = a.Address2
	m.City = a.City
	m.State = a.State
	m.Zip = a.Zip
	m.Country = a.Country
}

// OrderAddressModel is the order-address join capturing billing/shipping
// usage; attaching twice is a no-op through the unique index.
type OrderAddressModel struct {
	OrderID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_addresses;index"`
	AddressID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_addresses"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for OrderAddressModel
func (OrderAddressModel) TableName() string {
	return "order_addresses"
}

// OrderModel persists imported orders; external_id is the natural key.
// Monetary columns hold fixed 2-decimal strings.
type OrderModel struct {
	BaseModel
	ExternalID            int64      `gorm:"not null;uniqueIndex"`
	ProductID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID            *uuid.UUID `gorm:"type:uuid;index"`
	OrderDate             time.Time  `gorm:"not null;index"`
	Agent                 string     `gorm:"size:200"`
	GrandTotal            string     `gorm:"size:32;not null;default:'0.00'"`
	RefundAmount          string     `gorm:"size:32;not null;default:'0.00'"`
	IsMarketplace         bool       `gorm:"not null;default:false"`
	HasMissingContactInfo bool       `gorm:"not null;default:false"`
	IsRefunded            bool       `gorm:"not null;default:false"`
	IsPartialRefund       bool       `gorm:"not null;default:false"`
	RefundAmountIsValid   bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for OrderModel
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model to a domain order
func (m *OrderModel) ToDomain() *trade.Order {
	return &trade.Order{
		BaseEntity:            m.BaseModel.ToDomain(),
		ExternalID:            m.ExternalID,
		ProductID:             m.ProductID,
		CustomerID:            m.CustomerID,
		OrderDate:             m.OrderDate,
		Agent:                 m.Agent,
		GrandTotal:            m.GrandTotal,
		RefundAmount:          m.RefundAmount,
		IsMarketplace:         m.IsMarketplace,
		HasMissingContactInfo: m.HasMissingContactInfo,
		IsRefunded:            m.IsRefunded,
		IsPartialRefund:       m.IsPartialRefund,
		RefundAmountIsValid:   m.RefundAmountIsValid,
	}
}

// FromDomain populates the model from a domain order
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.BaseModel.FromDomain(o.BaseEntity)
	m.ExternalID = o.ExternalID
	m.ProductID = o.ProductID
	m.CustomerID = o.CustomerID
	m.OrderDate = o.OrderDate
	m.Agent = o.Agent
	m.GrandTotal = o.GrandTotal
	m.RefundAmount = o.RefundAmount
	m.IsMarketplace = o.IsMarketplace
	m.HasMissingContactInfo = o.HasMissingContactInfo
	m.IsRefunded = o.IsRefunded
	m.IsPartialRefund = o.IsPartialRefund
	m.RefundAmountIsValid = o.RefundAmountIsValid
}

// OrderItemModel persists order lines; external_id is the natural key
type OrderItemModel struct {
	BaseModel
	ExternalID    int64     `gorm:"not null;uniqueIndex"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID        int64     `gorm:"not null"`
	Price         string    `gorm:"size:32;not null;default:'0.00'"`
	Qty           int       `gorm:"not null;default:0"`
}

// TableName returns the table name for OrderItemModel
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to a domain order item
func (m *OrderItemModel) ToDomain() *trade.OrderItem {
	return &trade.OrderItem{
		BaseEntity:    m.BaseModel.ToDomain(),
		ExternalID:    m.ExternalID,
		OrderID:       m.OrderID,
		ProductItemID: m.ProductItemID,
		ItemID:        m.ItemID,
		Price:         m.Price,
		Qty:           m.Qty,
	}
}

// FromDomain populates the model from a domain order item
func (m *OrderItemModel) FromDomain(i *trade.OrderItem) {
	m.BaseModel.FromDomain(i.BaseEntity)
	m.ExternalID = i.ExternalID
	m.OrderID = i.OrderID
	m.ProductItemID = i.ProductItemID
	m.ItemID = i.ItemID
	m.Price = i.Price
	m.Qty = i.Qty
}
