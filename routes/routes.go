package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/dbsec-lab/controllers"
	"github.com/vnkhanh/dbsec-lab/middleware"
	"github.com/vnkhanh/dbsec-lab/ws"
)

func SetupRouter(r *gin.Engine, h *controllers.Handler) *gin.Engine {
	requireAuth := middleware.AuthMiddleware(h.Tokens, h.Users)
	requireAdmin := middleware.RequireAdmin()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", h.HealthCheck)

	// Public content
	r.GET("/", h.Home)
	r.GET("/exercise/:id", h.GetExercise)
	r.GET("/step/:id", h.GetStep)

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/verify", requireAuth, h.Verify)
	}

	r.GET("/admin", requireAuth, requireAdmin, h.AdminDashboard)

	api := r.Group("/api")
	{
		api.GET("/exercise/:id/steps", h.ExerciseSteps)
	}

	admin := api.Group("")
	{
		admin.Use(requireAuth, requireAdmin)

		// Content management
		admin.POST("/content", h.CreateContent)
		admin.PUT("/content/:id", h.UpdateContent)
		admin.DELETE("/content/:id", h.DeleteContent)

		admin.POST("/upload", h.Upload)
		admin.GET("/export-content", h.ExportContent)
		admin.POST("/import-legacy", h.ImportLegacy)

		// Account flags
		admin.GET("/admin/users", h.ListUsers)
		admin.PATCH("/admin/users/:username", h.PatchUser)
	}

	// Realtime
	r.GET("/ws/content", ws.HandleContentWebSocket(h.Hub, h.Tokens, h.Users, h.AllowedOrigins))

	return r
}
