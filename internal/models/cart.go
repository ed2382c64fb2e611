package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a user's in-progress selection of products. A user has exactly one
// active cart at a time; checkout consumes it by setting IsActive to false.
type Cart struct {
	BaseModel
	UserID   uuid.UUID  `gorm:"type:uuid;index:idx_carts_user_active" json:"user_id"`
	IsActive bool       `gorm:"index:idx_carts_user_active" json:"is_active"`
	Items    []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// Subtotal sums the current catalog price of every line. Items must be
// loaded with their products.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		if item.Product == nil {
			continue
		}
		subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// CartItem is one mutable line in a cart.
type CartItem struct {
	BaseModel
	CartID    uuid.UUID `gorm:"type:uuid;index" json:"cart_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
}
