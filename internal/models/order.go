package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentMethod enumerates the supported checkout payment methods.
type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodPix          PaymentMethod = "pix"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodBoleto       PaymentMethod = "boleto"
)

// Valid reports whether the method is one of the supported enumeration values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPix, MethodBankTransfer, MethodBoleto:
		return true
	}
	return false
}

// Order is the durable receipt created at checkout. Totals are fixed at
// creation time and never recomputed; only status and the paid marker fields
// change afterwards.
type Order struct {
	BaseModel
	UserID      uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	OrderNumber string      `gorm:"uniqueIndex;size:20" json:"order_number"`
	Status      OrderStatus `gorm:"size:20" json:"status"`

	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `gorm:"size:100" json:"shipping_city"`
	ShippingState   string `gorm:"size:2" json:"shipping_state"`
	ShippingZipcode string `gorm:"size:9" json:"shipping_zipcode"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2)" json:"subtotal"`
	ShippingFee decimal.Decimal `gorm:"type:decimal(6,2)" json:"shipping_fee"`
	Discount    decimal.Decimal `gorm:"type:decimal(6,2)" json:"discount"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2)" json:"total"`

	PaymentMethod PaymentMethod `gorm:"size:20" json:"payment_method"`
	PaymentID     string        `gorm:"size:100" json:"payment_id"`
	PaidAt        *time.Time    `json:"paid_at"`

	Items []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem is an immutable line snapshot: product name and unit price are
// copied at purchase time and stay untouched by later catalog edits.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid" json:"product_id"`
	ProductName string          `gorm:"size:100" json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price"`
}

// LineTotal is the derived line amount (unit price times quantity).
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
