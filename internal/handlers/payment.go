package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/docecostura/internal/middleware"
	"github.com/example/docecostura/internal/models"
	"github.com/example/docecostura/internal/services"
)

// PaymentHandler exposes payment lookup and reconciliation endpoints.
type PaymentHandler struct {
	db       *gorm.DB
	checkout *services.CheckoutService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(db *gorm.DB, checkout *services.CheckoutService) *PaymentHandler {
	return &PaymentHandler{db: db, checkout: checkout}
}

// loadOwnedPayment fetches the payment and verifies the order belongs to the
// requesting user.
func (h *PaymentHandler) loadOwnedPayment(c *fiber.Ctx) (*models.Payment, error) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	var payment models.Payment
	err = h.db.Joins("JOIN orders ON orders.id = payments.order_id").
		Where("payments.id = ? AND orders.user_id = ?", id, userID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "payment not found")
		}
		return nil, err
	}
	return &payment, nil
}

// Get returns one payment.
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	payment, err := h.loadOwnedPayment(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payment,
	})
}

// CheckStatus polls the gateway for a pending payment and applies any status
// change. Settled payments are returned without a gateway call.
func (h *PaymentHandler) CheckStatus(c *fiber.Ctx) error {
	payment, err := h.loadOwnedPayment(c)
	if err != nil {
		return err
	}

	result, err := h.checkout.CheckStatus(c.Context(), payment.ID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "payment not found")
		}
		return err
	}

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(fiber.Map{
		"success": result.Success,
		"data":    result,
	})
}
