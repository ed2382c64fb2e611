package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/docecostura/internal/middleware"
	"github.com/example/docecostura/internal/services"
)

// RecommendationHandler serves product recommendation endpoints.
type RecommendationHandler struct {
	recommendations *services.RecommendationService
}

// NewRecommendationHandler constructs RecommendationHandler.
func NewRecommendationHandler(recommendations *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations}
}

func recommendationLimit(c *fiber.Ctx) int {
	if parsed, err := strconv.Atoi(c.Query("limit", "10")); err == nil && parsed > 0 {
		return parsed
	}
	return 10
}

// Trending returns the recent best sellers.
func (h *RecommendationHandler) Trending(c *fiber.Ctx) error {
	scored, err := h.recommendations.Trending(c.Context(), recommendationLimit(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    scored,
	})
}

// Similar returns products from the same category as the given product.
func (h *RecommendationHandler) Similar(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	scored, err := h.recommendations.Similar(c.Context(), productID, recommendationLimit(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    scored,
	})
}

// ForUser returns personalized recommendations for the authenticated user.
func (h *RecommendationHandler) ForUser(c *fiber.Ctx) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	scored, err := h.recommendations.ForUser(c.Context(), userID, recommendationLimit(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    scored,
	})
}
