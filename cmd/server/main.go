package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/materialsdesk/internal/config"
	"github.com/example/materialsdesk/internal/database"
	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/handlers"
	"github.com/example/materialsdesk/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	client, err := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayTimeout)
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Materialsdesk Admin Console",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	routes.Register(app, db, cfg, client)

	log.Printf("Starting server on :%s (gateway %s)", cfg.AppPort, cfg.GatewayBaseURL)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
