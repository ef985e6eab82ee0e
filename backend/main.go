package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/middleware"
	"github.com/brentedwards-nz/Benefit-sub000/backend/routes"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config", "error", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		File:         cfg.LogFile,
		Output:       os.Stdout,
		ReportCaller: !cfg.IsProduction(),
	})

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatal("Error initializing database", "error", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "benefit",
		ErrorHandler: utils.ErrorHandler(cfg),
	})

	// Middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: cfg.AllowOrigins != "*",
	}))
	app.Use(middleware.LoggingMiddleware(logger))
	app.Use(recover.New())

	// Setup routes
	routes.SetupRoutes(app, db, cfg)

	// Start server
	logger.Info("listening", "port", cfg.ServerPort, "env", cfg.AppEnv, "timezone", cfg.Timezone)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}
