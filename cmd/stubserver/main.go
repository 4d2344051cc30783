package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/lureclo-storefront/internal/config"
	"github.com/example/lureclo-storefront/internal/stub"
)

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		AppName: "Lureclo Stub API",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	stub.Register(app, cfg)

	log.Printf("Starting stub API on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
