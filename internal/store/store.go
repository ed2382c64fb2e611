// Package store isolates persistence behind narrow interfaces so the
// checkout orchestrator and order ledger can run against Postgres in
// production and an in-memory implementation in tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/docecostura/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateOrderNumber signals a unique violation on orders.order_number.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	// ErrInsufficientStock is returned by the checked decrement variant only.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CartStore reads and consumes per-user active carts.
type CartStore interface {
	ActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Deactivate(ctx context.Context, cartID uuid.UUID) error
}

// ProductStore mutates catalog stock.
type ProductStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// DecrementStock subtracts qty without checking the remaining amount;
	// stock may go negative. This mirrors the checkout flow's behavior.
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
	// DecrementStockChecked subtracts qty only when enough stock remains.
	DecrementStockChecked(ctx context.Context, productID uuid.UUID, qty int) error
}

// OrderStore persists the order ledger.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// MarkAsPaid sets status, payment id and paid timestamp as one update,
	// guarded so it applies at most once. Reports whether the transition ran.
	MarkAsPaid(ctx context.Context, orderID uuid.UUID, transactionID string, paidAt time.Time) (bool, error)
}

// PaymentStore persists payment attempts.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	// UpdatePayment saves the row after the dispatch call fills in
	// transaction id, status and gateway data.
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	// UpdateStatusCAS moves status from expected to next atomically so
	// concurrent status checks cannot clobber each other. Reports whether
	// the transition ran.
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected, next models.PaymentStatus, data map[string]any) (bool, error)
}
