package routes

import (
	"github.com/deptcms/portal/internal/app/controllers"
	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth    *controllers.AuthController
	Health  *controllers.HealthController
	Storage *controllers.StorageController // nil unless the local attachment store is in use

	Faculty           *controllers.ResourceController[models.Faculty]
	Events            *controllers.ResourceController[models.Event]
	Notices           *controllers.ResourceController[models.Notice]
	Gallery           *controllers.ResourceController[models.GalleryItem]
	Timetables        *controllers.ResourceController[models.Timetable]
	AcademicResources *controllers.ResourceController[models.AcademicResource]
	Alumni            *controllers.ResourceController[models.Alumni]
	MentorMentee      *controllers.ResourceController[models.MentorMentee]
	Achievements      *controllers.ResourceController[models.Achievement]
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c *Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if c.Storage != nil {
		router.GET("/storage/file/d/:id/view", c.Storage.View)
	}

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", c.Health.Health)

	// --- Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", c.Auth.Login)
		auth.GET("/me", authMiddleware.AdminRequired(), c.Auth.Me)
	}

	// --- Content routes: public reads, admin writes ---
	admin := v1.Group("")
	admin.Use(authMiddleware.AdminRequired())

	registerResource(v1, admin, "/faculty", c.Faculty)
	registerResource(v1, admin, "/events", c.Events)
	registerResource(v1, admin, "/notices", c.Notices)
	registerResource(v1, admin, "/gallery", c.Gallery)
	registerResource(v1, admin, "/timetables", c.Timetables)
	registerResource(v1, admin, "/academics", c.AcademicResources)
	registerResource(v1, admin, "/alumni", c.Alumni)
	registerResource(v1, admin, "/mentor-mentee", c.MentorMentee)
	registerResource(v1, admin, "/achievements", c.Achievements)
}

func registerResource[T any](public, admin *gin.RouterGroup, path string, ctrl *controllers.ResourceController[T]) {
	reads := public.Group(path)
	{
		reads.GET("", ctrl.List)
		reads.GET("/:id", ctrl.Get)
	}

	writes := admin.Group(path)
	{
		writes.POST("", ctrl.Create)
		writes.PUT("/:id", ctrl.Update)
		writes.DELETE("/:id", ctrl.Delete)
	}
}
