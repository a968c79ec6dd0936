package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"minddrag/config"
	controller "minddrag/controllers"
	"minddrag/middleware"
)

func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	teamController := controller.NewTeamController(db, log.New(os.Stdout, "TEAM: ", log.LstdFlags))
	dragableController := controller.NewDragableController(db, log.New(os.Stdout, "DRAGABLE: ", log.LstdFlags))
	annotationController := controller.NewAnnotationController(db, log.New(os.Stdout, "ANNOTATION: ", log.LstdFlags))

	api := app.Group(config.AppConfig.HostPrefix, logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Team reads are open to anonymous callers; everything else needs auth.
	teams := api.Group("/teams")
	teams.Get("/", middleware.OptionalAuth(), teamController.ListTeams)
	teams.Get("/:name", middleware.OptionalAuth(), teamController.GetTeam)

	teamMutations := teams.Group("", middleware.Protected(), middleware.MutationRateLimiter())
	teamMutations.Post("/", teamController.CreateTeam)
	teamMutations.Put("/:name", teamController.UpdateTeam)
	teamMutations.Delete("/:name", teamController.DeleteTeam)
	teamMutations.Post("/:name/join", teamController.JoinTeam)
	teamMutations.Post("/:name/leave", teamController.LeaveTeam)

	dragables := api.Group("/dragables", middleware.Protected(), middleware.MutationRateLimiter())
	dragables.Get("/", dragableController.ListDragables)
	dragables.Get("/:hash", dragableController.GetDragable)
	dragables.Post("/", dragableController.CreateDragable)
	dragables.Put("/:hash", dragableController.UpdateDragable)
	dragables.Delete("/:hash", dragableController.DeleteDragable)

	annotations := api.Group("/annotations", middleware.Protected(), middleware.MutationRateLimiter())
	annotations.Get("/", annotationController.ListAnnotations)
	annotations.Get("/:hash", annotationController.GetAnnotation)
	annotations.Post("/", annotationController.CreateAnnotation)
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	SetupAuthRoutes(app)
	SetupAPIRoutes(app, db)
}
