package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/docecostura/internal/models"
)

// Gorm implements the store interfaces on top of a gorm connection.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps a gorm connection.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// ActiveCart loads the user's single active cart with items and products.
func (s *Gorm) ActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// Deactivate consumes a cart so it cannot be reused for another checkout.
func (s *Gorm) Deactivate(ctx context.Context, cartID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("is_active", false).Error
}

// GetProduct loads a product by id.
func (s *Gorm) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// DecrementStock subtracts without a remaining-stock predicate.
func (s *Gorm) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	return s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty)).Error
}

// DecrementStockChecked subtracts only when enough stock remains.
func (s *Gorm) DecrementStockChecked(ctx context.Context, productID uuid.UUID, qty int) error {
	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// CreateOrder inserts an order together with its item snapshots.
func (s *Gorm) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateOrderNumber
		}
		return err
	}
	return nil
}

// GetOrder loads an order with its items.
func (s *Gorm) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// MarkAsPaid applies the pending-to-paid transition at most once.
func (s *Gorm) MarkAsPaid(ctx context.Context, orderID uuid.UUID, transactionID string, paidAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", orderID, models.OrderStatusPaid).
		Updates(map[string]any{
			"status":     models.OrderStatusPaid,
			"payment_id": transactionID,
			"paid_at":    paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreatePayment inserts a new payment attempt.
func (s *Gorm) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

// GetPayment loads a payment by id.
func (s *Gorm) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// UpdatePayment saves the row after a dispatch call.
func (s *Gorm) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Save(payment).Error
}

// UpdateStatusCAS transitions payment status with a compare-and-set.
func (s *Gorm) UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected, next models.PaymentStatus, data map[string]any) (bool, error) {
	updates := models.Payment{Status: next}
	if data != nil {
		updates.TransactionData = data
	}
	res := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
