package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/controllers"
	"github.com/brentedwards-nz/Benefit-sub000/backend/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	app.Post("/api/auth/logout", authController.Logout)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(cfg)

	userController := controllers.NewUserController(db, cfg)
	progressController := controllers.NewProgressController(db, cfg)

	// Client routes
	me := app.Group("/api/me", authMiddleware)
	me.Get("/", userController.GetProfile)
	me.Put("/", userController.UpdateProfile)
	me.Get("/programmes", progressController.GetProgrammes)
	me.Get("/habits/days", progressController.GetHabitDays)
	me.Get("/habits/daily", progressController.GetDailyHabits)
	me.Post("/habits/:programmeHabitId/completions", progressController.UpsertCompletion)

	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)

	// Admin routes for clients
	clientController := controllers.NewClientController(db, cfg)
	clients := admin.Group("/clients")
	clients.Get("/", clientController.ListClients)
	clients.Post("/", clientController.CreateClient)
	clients.Get("/:id", clientController.GetClient)
	clients.Put("/:id", clientController.UpdateClient)
	clients.Get("/:id/habits/days", progressController.GetHabitDays)
	clients.Get("/:id/habits/daily", progressController.GetDailyHabits)

	// Admin routes for the habit library
	habitController := controllers.NewHabitController(db, cfg)
	habits := admin.Group("/habits")
	habits.Get("/", habitController.ListHabits)
	habits.Post("/", habitController.CreateHabit)
	habits.Put("/:id", habitController.UpdateHabit)

	// Admin routes for programmes
	programmeController := controllers.NewProgrammeController(db, cfg)
	programmeHabitController := controllers.NewProgrammeHabitController(db, cfg)
	enrolmentController := controllers.NewEnrolmentController(db, cfg)
	programmes := admin.Group("/programmes")
	programmes.Get("/", programmeController.ListProgrammes)
	programmes.Post("/", programmeController.CreateProgramme)
	programmes.Get("/:id", programmeController.GetProgramme)
	programmes.Put("/:id", programmeController.UpdateProgramme)
	programmes.Delete("/:id", programmeController.DeleteProgramme)
	programmes.Post("/:id/habits", programmeHabitController.AssignHabit)
	programmes.Put("/:id/habits/:phId", programmeHabitController.UpdateProgrammeHabit)
	programmes.Delete("/:id/habits/:phId", programmeHabitController.RemoveProgrammeHabit)
	programmes.Get("/:id/enrolments", enrolmentController.ListEnrolments)
	programmes.Post("/:id/enrolments", enrolmentController.Enrol)
	programmes.Delete("/:id/enrolments/:clientId", enrolmentController.RemoveEnrolment)

	// Admin routes for account connections
	connectionController := controllers.NewConnectionController(db, cfg)
	connections := admin.Group("/connections")
	connections.Get("/", connectionController.ListConnections)
	connections.Get("/:provider/authorize", connectionController.Authorize)
	connections.Get("/:provider/callback", connectionController.Callback)
	connections.Get("/:provider/status", connectionController.ConnectionStatus)
	connections.Delete("/:provider", connectionController.DeleteConnection)
}
