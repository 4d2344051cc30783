// Package stub is an in-memory backend implementing the storefront REST
// contract, so the client runs locally and under test without the real API.
package stub

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/lureclo-storefront/internal/config"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, cfg *config.Config) {
	store := newMemoryStore()

	authHandler := NewAuthHandler(cfg)
	cartHandler := NewCartHandler(store)
	orderHandler := NewOrderHandler(store)
	paymentHandler := NewPaymentHandler(store)

	user := app.Group("/user")
	user.Get("/anonymous-token", authHandler.AnonymousToken)
	user.Post("/login", authHandler.Login)
	user.Post("/refresh", AuthMiddleware(cfg), authHandler.Refresh)

	cart := app.Group("/cart", AuthMiddleware(cfg))
	cart.Get("/", cartHandler.List)
	cart.Post("/create", cartHandler.Create)
	cart.Put("/update/:id", cartHandler.Update)
	cart.Delete("/delete/:id", cartHandler.Delete)

	app.Post("/address/create", AuthMiddleware(cfg), orderHandler.CreateAddress)
	app.Post("/purchase/create", AuthMiddleware(cfg), orderHandler.CreatePurchase)
	app.Get("/purchase/:id", AuthMiddleware(cfg), orderHandler.GetPurchase)

	// The widget's confirmation call, kept on the same app for convenience.
	app.Post("/payment/confirm", paymentHandler.Confirm)
}
