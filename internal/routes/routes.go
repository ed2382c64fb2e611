package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"

	"github.com/example/docecostura/internal/config"
	"github.com/example/docecostura/internal/gateway"
	"github.com/example/docecostura/internal/handlers"
	"github.com/example/docecostura/internal/metrics"
	"github.com/example/docecostura/internal/middleware"
	"github.com/example/docecostura/internal/services"
	"github.com/example/docecostura/internal/store"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	paymentMetrics := metrics.NewPaymentMetrics("payments")

	dispatcher := gateway.NewDispatcher(
		gateway.NewCardGateway(gateway.CardConfig{
			SecretKey: cfg.CardSecretKey,
			BaseURL:   cfg.CardBaseURL,
			Timeout:   cfg.GatewayTimeout,
		}),
		gateway.NewPixGateway(gateway.PixConfig{
			AccessToken: cfg.PixAccessToken,
			BaseURL:     cfg.PixBaseURL,
			Timeout:     cfg.GatewayTimeout,
		}),
		gateway.NewBoletoGateway(gateway.BoletoConfig{
			APIKey:  cfg.BoletoAPIKey,
			Token:   cfg.BoletoToken,
			BaseURL: cfg.BoletoBaseURL,
			Timeout: cfg.GatewayTimeout,
		}),
	)

	persistence := store.NewGorm(db)
	checkoutService := services.NewCheckoutService(
		persistence, persistence, persistence, persistence,
		dispatcher, telegramService, paymentMetrics, cfg.StrictStockCheck,
	)
	recommendationService := services.NewRecommendationService(db)

	authHandler := handlers.NewAuthHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db)
	productHandler := handlers.NewProductHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db, checkoutService)
	paymentHandler := handlers.NewPaymentHandler(db, checkoutService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", middleware.IdentityMiddleware(cfg))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/profile", authHandler.Profile)
	auth.Post("/change-password", authHandler.ChangePassword)

	// Catalog routes
	categories := api.Group("/categories")
	categories.Get("/", categoryHandler.List)
	categories.Post("/", categoryHandler.Create)
	categories.Get("/:id", categoryHandler.Get)
	categories.Put("/:id", categoryHandler.Update)
	categories.Delete("/:id", categoryHandler.Delete)

	products := api.Group("/products")
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.Get)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)
	products.Post("/:id/stock", productHandler.UpdateStock)
	products.Get("/:id/similar", recommendationHandler.Similar)

	// Cart routes
	cart := api.Group("/cart")
	cart.Get("/", cartHandler.Get)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:itemId", cartHandler.UpdateItem)
	cart.Delete("/items/:itemId", cartHandler.RemoveItem)
	cart.Delete("/", cartHandler.Clear)

	// Checkout and orders
	api.Post("/checkout", orderHandler.Checkout)
	orders := api.Group("/orders")
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.Get)
	orders.Get("/:id/payments", orderHandler.Payments)

	// Payments
	payments := api.Group("/payments")
	payments.Get("/:id", paymentHandler.Get)
	payments.Post("/:id/check-status", paymentHandler.CheckStatus)

	// Recommendations
	recommendations := api.Group("/recommendations")
	recommendations.Get("/trending", recommendationHandler.Trending)
	recommendations.Get("/personal", recommendationHandler.ForUser)
}
