package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/docecostura/internal/middleware"
	"github.com/example/docecostura/internal/models"
)

// CartHandler manages the authenticated user's active cart.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

// activeCart loads the user's active cart, creating one when none exists.
func (h *CartHandler) activeCart(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := h.db.Preload("Items.Product").
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID, IsActive: true}
	if err := h.db.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func cartResponse(c *fiber.Ctx, cart *models.Cart) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"cart":     cart,
			"subtotal": cart.Subtotal(),
		},
	})
}

// Get returns the active cart, creating an empty one on first use.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	cart, err := h.activeCart(userID)
	if err != nil {
		return err
	}
	return cartResponse(c, cart)
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem puts a product into the cart, merging with an existing line.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ? AND is_active = ?", productID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	cart, err := h.activeCart(userID)
	if err != nil {
		return err
	}

	var item models.CartItem
	err = h.db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
	switch {
	case err == nil:
		newQuantity := item.Quantity + req.Quantity
		if newQuantity > product.Stock {
			return fiber.NewError(fiber.StatusConflict, "not enough stock")
		}
		if err := h.db.Model(&item).Update("quantity", newQuantity).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if req.Quantity > product.Stock {
			return fiber.NewError(fiber.StatusConflict, "not enough stock")
		}
		item = models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  req.Quantity,
		}
		if err := h.db.Create(&item).Error; err != nil {
			return err
		}
	default:
		return err
	}

	cart, err = h.activeCart(userID)
	if err != nil {
		return err
	}
	return cartResponse(c, cart)
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets a line's quantity; zero removes the line.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	var req cartQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must not be negative")
	}

	cart, err := h.activeCart(userID)
	if err != nil {
		return err
	}

	var item models.CartItem
	if err := h.db.Preload("Product").
		Where("id = ? AND cart_id = ?", itemID, cart.ID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return err
	}

	if req.Quantity == 0 {
		if err := h.db.Delete(&item).Error; err != nil {
			return err
		}
	} else {
		if item.Product != nil && req.Quantity > item.Product.Stock {
			return fiber.NewError(fiber.StatusConflict, "not enough stock")
		}
		if err := h.db.Model(&item).Update("quantity", req.Quantity).Error; err != nil {
			return err
		}
	}

	cart, err = h.activeCart(userID)
	if err != nil {
		return err
	}
	return cartResponse(c, cart)
}

// RemoveItem deletes a line from the cart.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	cart, err := h.activeCart(userID)
	if err != nil {
		return err
	}

	result := h.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "cart item not found")
	}

	cart, err = h.activeCart(userID)
	if err != nil {
		return err
	}
	return cartResponse(c, cart)
}

// Clear empties the active cart.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	cart, err := h.activeCart(userID)
	if err != nil {
		return err
	}

	if err := h.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}

	cart, err = h.activeCart(userID)
	if err != nil {
		return err
	}
	return cartResponse(c, cart)
}
