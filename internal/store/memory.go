package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/docecostura/internal/models"
)

// Memory is an in-memory implementation of the store interfaces, used by the
// service tests. All methods copy on the way in and out so callers cannot
// alias stored state.
type Memory struct {
	mu           sync.Mutex
	carts        map[uuid.UUID]*models.Cart
	products     map[uuid.UUID]*models.Product
	orders       map[uuid.UUID]*models.Order
	orderNumbers map[string]uuid.UUID
	payments     map[uuid.UUID]*models.Payment
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		carts:        make(map[uuid.UUID]*models.Cart),
		products:     make(map[uuid.UUID]*models.Product),
		orders:       make(map[uuid.UUID]*models.Order),
		orderNumbers: make(map[string]uuid.UUID),
		payments:     make(map[uuid.UUID]*models.Payment),
	}
}

// PutProduct inserts or replaces a product.
func (m *Memory) PutProduct(p *models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.products[p.ID] = &cp
}

// PutCart inserts or replaces a cart, assigning ids where missing.
func (m *Memory) PutCart(c *models.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	cp.Items = make([]models.CartItem, len(c.Items))
	for i, item := range c.Items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.CartID = c.ID
		cp.Items[i] = item
	}
	m.carts[c.ID] = &cp
}

func (m *Memory) ActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.UserID == userID && c.IsActive {
			cp := *c
			cp.Items = make([]models.CartItem, len(c.Items))
			for i, item := range c.Items {
				if p, ok := m.products[item.ProductID]; ok {
					pcp := *p
					item.Product = &pcp
				}
				cp.Items[i] = item
			}
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Deactivate(ctx context.Context, cartID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[cartID]; ok {
		c.IsActive = false
	}
	return nil
}

func (m *Memory) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productID]; ok {
		p.Stock -= qty
	}
	return nil
}

func (m *Memory) DecrementStockChecked(ctx context.Context, productID uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (m *Memory) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orderNumbers[order.OrderNumber]; exists {
		return ErrDuplicateOrderNumber
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &cp
	m.orderNumbers[order.OrderNumber] = order.ID
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (m *Memory) MarkAsPaid(ctx context.Context, orderID uuid.UUID, transactionID string, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Status == models.OrderStatusPaid {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.PaymentID = transactionID
	o.PaidAt = &paidAt
	return true, nil
}

func (m *Memory) CreatePayment(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	cp := *payment
	m.payments[payment.ID] = &cp
	return nil
}

func (m *Memory) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *payment
	m.payments[payment.ID] = &cp
	return nil
}

func (m *Memory) UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected, next models.PaymentStatus, data map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.Status != expected {
		return false, nil
	}
	p.Status = next
	if data != nil {
		p.TransactionData = data
	}
	return true, nil
}
