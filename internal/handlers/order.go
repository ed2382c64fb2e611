package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/docecostura/internal/middleware"
	"github.com/example/docecostura/internal/models"
	"github.com/example/docecostura/internal/services"
	"github.com/example/docecostura/internal/utils"
)

// OrderHandler exposes checkout and order history endpoints.
type OrderHandler struct {
	db       *gorm.DB
	checkout *services.CheckoutService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, checkout *services.CheckoutService) *OrderHandler {
	return &OrderHandler{db: db, checkout: checkout}
}

// Checkout converts the active cart into an order and dispatches the payment.
// A declined payment still returns 201: the order exists and can be paid
// again later.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	var input services.CheckoutInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.checkout.Checkout(c.Context(), userID, input)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(validationErrs))
		case errors.Is(err, services.ErrCartNotFound):
			return fiber.NewError(fiber.StatusNotFound, "no active cart")
		case errors.Is(err, services.ErrCartEmpty):
			return fiber.NewError(fiber.StatusBadRequest, "cart is empty")
		case errors.Is(err, services.ErrInsufficientStock):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

func validationMessage(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "invalid request"
	}
	first := errs[0]
	return "invalid field " + first.Field()
}

// List returns the authenticated user's orders, newest first.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	pagination := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	err = h.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(pagination.Offset).
		Limit(pagination.Limit).
		Find(&orders).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"meta": fiber.Map{
			"page":  pagination.Page,
			"limit": pagination.Limit,
			"total": total,
		},
	})
}

// Get returns one of the user's orders with its items.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	err = h.db.Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// Payments lists the payment attempts recorded for one of the user's orders.
func (h *OrderHandler) Payments(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	var payments []models.Payment
	if err := h.db.Where("order_id = ?", order.ID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payments,
	})
}
