package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/docecostura/internal/models"
)

// trendingWindowDays bounds how far back the sales aggregation looks.
const trendingWindowDays = 30

// ScoredProduct is a recommendation entry with its ranking score.
type ScoredProduct struct {
	Product models.Product `json:"product"`
	Score   float64        `json:"score"`
}

// RecommendationService ranks catalog products from recent sales data.
type RecommendationService struct {
	db *gorm.DB
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(db *gorm.DB) *RecommendationService {
	return &RecommendationService{db: db}
}

type productSales struct {
	ProductID uuid.UUID
	Sold      int64
}

// Trending returns the best sellers of the last thirty days.
func (s *RecommendationService) Trending(ctx context.Context, limit int) ([]ScoredProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	since := time.Now().AddDate(0, 0, -trendingWindowDays)

	var sales []productSales
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id AS product_id, SUM(order_items.quantity) AS sold").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ?", since).
		Group("order_items.product_id").
		Order("sold DESC").
		Limit(limit).
		Scan(&sales).Error
	if err != nil {
		return nil, err
	}

	return s.scoreByRank(ctx, productIDs(sales))
}

// Similar returns active products sharing the given product's category,
// featured ones first.
func (s *RecommendationService) Similar(ctx context.Context, productID uuid.UUID, limit int) ([]ScoredProduct, error) {
	if limit <= 0 {
		limit = 10
	}

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("category_id = ? AND id <> ? AND is_active = ?", product.CategoryID, product.ID, true).
		Order("is_featured DESC, created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return scoreInOrder(products), nil
}

// ForUser recommends popular products from the categories the user has bought
// in, excluding products they already own. Users with no purchase history get
// the trending list.
func (s *RecommendationService) ForUser(ctx context.Context, userID uuid.UUID, limit int) ([]ScoredProduct, error) {
	if limit <= 0 {
		limit = 10
	}

	var boughtProductIDs []uuid.UUID
	err := s.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ?", userID).
		Distinct().
		Pluck("order_items.product_id", &boughtProductIDs).Error
	if err != nil {
		return nil, err
	}
	if len(boughtProductIDs) == 0 {
		return s.Trending(ctx, limit)
	}

	var categoryIDs []uuid.UUID
	err = s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id IN ?", boughtProductIDs).
		Distinct().
		Pluck("category_id", &categoryIDs).Error
	if err != nil {
		return nil, err
	}

	var sales []productSales
	err = s.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id AS product_id, SUM(order_items.quantity) AS sold").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.category_id IN ?", categoryIDs).
		Where("order_items.product_id NOT IN ?", boughtProductIDs).
		Group("order_items.product_id").
		Order("sold DESC").
		Limit(limit).
		Scan(&sales).Error
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return s.Trending(ctx, limit)
	}

	return s.scoreByRank(ctx, productIDs(sales))
}

// scoreByRank loads the active products behind the ranked ids and assigns
// descending scores, keeping the sales order.
func (s *RecommendationService) scoreByRank(ctx context.Context, ids []uuid.UUID) ([]ScoredProduct, error) {
	if len(ids) == 0 {
		return []ScoredProduct{}, nil
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return scoreInOrder(ordered), nil
}

func scoreInOrder(products []models.Product) []ScoredProduct {
	scored := make([]ScoredProduct, 0, len(products))
	for i, p := range products {
		score := 1.0 - float64(i)*0.05
		if score < 0.1 {
			score = 0.1
		}
		scored = append(scored, ScoredProduct{Product: p, Score: score})
	}
	return scored
}

func productIDs(sales []productSales) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(sales))
	for _, row := range sales {
		ids = append(ids, row.ProductID)
	}
	return ids
}
