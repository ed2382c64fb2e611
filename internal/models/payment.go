package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates the payment lifecycle. Once approved, only
// refunded or cancelled may follow; declined is terminal.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusDeclined  PaymentStatus = "declined"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Payment records one attempt to collect funds for an order. Retries create
// new rows; an existing row is only ever updated by the dispatch call itself
// and by later status checks.
type Payment struct {
	BaseModel
	OrderID uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Order   *Order    `json:"order,omitempty"`

	Amount decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Method PaymentMethod   `gorm:"column:payment_method;size:20" json:"payment_method"`
	Status PaymentStatus   `gorm:"size:20" json:"status"`

	// TransactionID is assigned by the gateway; empty until it responds.
	TransactionID string `gorm:"size:100" json:"transaction_id"`

	// TransactionData holds the gateway-specific response verbatim: error
	// codes, PIX QR payload, boleto barcode and PDF URL, and so on.
	TransactionData map[string]any `gorm:"type:jsonb;serializer:json" json:"transaction_data"`
}
