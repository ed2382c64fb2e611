package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products.
type Category struct {
	BaseModel
	Name        string    `gorm:"size:100" json:"name"`
	Description string    `json:"description"`
	Products    []Product `json:"products,omitempty"`
}

// Product is the catalog's source of truth for price and stock. Stock is
// mutated by checkout decrements and by the stock-adjustment endpoint.
type Product struct {
	BaseModel
	SKU         string          `gorm:"uniqueIndex;size:50" json:"sku"`
	Name        string          `gorm:"size:100" json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	ImageURL    string          `json:"image_url"`
	IsFeatured  bool            `json:"is_featured"`
	IsActive    bool            `json:"is_active"`

	CreatorID      *uuid.UUID `gorm:"type:uuid" json:"creator_id"`
	LastModifiedBy *uuid.UUID `gorm:"type:uuid" json:"last_modified_by"`
}

// InStock reports whether any units remain.
func (p Product) InStock() bool {
	return p.Stock > 0
}
