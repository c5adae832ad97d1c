package routes

import (
	"campusportal/internal/auth"
	"campusportal/internal/handlers"
	"campusportal/internal/security"

	"github.com/labstack/echo/v4"
)

func SetupRoutes(api *echo.Group) {
	// Public routes
	api.GET("/health", handlers.HealthCheck)

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Use(auth.RateLimitMiddleware)
	authGroup.POST("/signup", handlers.Signup)
	authGroup.POST("/login", handlers.Login)

	// Protected routes
	api.Use(auth.JWTMiddleware)

	// Notification feed and interactions
	notifications := api.Group("/notifications")
	notifications.GET("", handlers.GetNotificationFeed)
	notifications.GET("/seen", handlers.GetSeenState)
	notifications.POST("/seen-all", handlers.MarkAllNotificationsSeen, security.RateLimiter)
	notifications.POST("/:id/seen", handlers.MarkNotificationSeen, security.RateLimiter)
	notifications.POST("/:id/acknowledge", handlers.AcknowledgeNotification, security.RateLimiter)
	notifications.POST("/:id/responses", handlers.SubmitSurveyResponse, security.RateLimiter)

	// Staff-only definition management
	admin := api.Group("/admin", auth.RequireStaff)
	definitions := admin.Group("/definitions")
	definitions.GET("", handlers.ListDefinitions)
	definitions.POST("", handlers.CreateDefinition)
	definitions.GET("/:id", handlers.GetDefinition)
	definitions.PUT("/:id", handlers.UpdateDefinition)
	definitions.DELETE("/:id", handlers.DeleteDefinition)
	// Audit endpoints
	definitions.GET("/:id/audit", handlers.GetDefinitionAudit)
	definitions.GET("/:id/changes", handlers.GetDefinitionChanges)
	definitions.POST("/:id/preview", handlers.PreviewDefinition)

	// Sync and job routes
	admin.POST("/sync/contexts", handlers.TriggerContextSync)
	jobs := admin.Group("/jobs")
	jobs.GET("/:id", handlers.GetJobStatus)
}
