package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/docecostura/internal/models"
	"github.com/example/docecostura/internal/store"
	"github.com/example/docecostura/internal/utils"
)

// orderNumberAttempts bounds the retry loop when a generated order number
// collides with an existing one.
const orderNumberAttempts = 3

// OrderLedger owns the append-only record of what was sold. It is the only
// component allowed to move an order into the paid status.
type OrderLedger struct {
	orders store.OrderStore
	now    func() time.Time
}

// NewOrderLedger builds the ledger on top of an order store.
func NewOrderLedger(orders store.OrderStore) *OrderLedger {
	return &OrderLedger{orders: orders, now: time.Now}
}

// Create assigns a fresh order number, fixes the total invariant
// (subtotal + shipping fee - discount) and persists the order with its item
// snapshots. A duplicate order number is retried with a new random suffix.
func (l *OrderLedger) Create(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.Total = order.Subtotal.Add(order.ShippingFee).Sub(order.Discount)

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber, err = utils.GenerateOrderNumber(l.now())
		if err != nil {
			return err
		}
		err = l.orders.CreateOrder(ctx, order)
		if !errors.Is(err, store.ErrDuplicateOrderNumber) {
			return err
		}
	}
	return err
}

// AddItem appends an immutable line snapshot, copying product id, name and
// price at this instant. Must be called before Create.
func (l *OrderLedger) AddItem(order *models.Order, product *models.Product, qty int) {
	order.Items = append(order.Items, models.OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    qty,
		UnitPrice:   product.Price,
	})
}

// MarkAsPaid records that funds were collected: status, payment id and paid
// timestamp change as one unit, at most once. Reports whether this call
// performed the transition.
func (l *OrderLedger) MarkAsPaid(ctx context.Context, orderID uuid.UUID, transactionID string) (bool, error) {
	return l.orders.MarkAsPaid(ctx, orderID, transactionID, l.now())
}

// Get loads an order with its items.
func (l *OrderLedger) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return l.orders.GetOrder(ctx, id)
}
