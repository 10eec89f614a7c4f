package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/verithos/policyforge-backend/internal/handlers"
	"github.com/verithos/policyforge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	UserHandler     *handlers.UserHandler
	PolicyHandler   *handlers.PolicyHandler
	VersionHandler  *handlers.VersionHandler
	DocumentHandler *handlers.DocumentHandler
	ShareHandler    *handlers.ShareHandler
	AuditHandler    *handlers.AuditHandler
	SSEHandler      *handlers.SSEHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	// Published documents, gated only by the share token.
	router.GET("/shared/:token", cfg.DocumentHandler.SharedView)
	// Auth is optional here: a ?token= share token stands in for ownership.
	router.GET("/policies/:id/generate/:format", cfg.AuthMiddleware.OptionalAuth(), cfg.DocumentHandler.Render)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.PUT("/user/plan", cfg.UserHandler.UpdatePlan)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.Stream)
	// Policies
	protected.POST("/policies", cfg.PolicyHandler.Create)
	protected.GET("/policies", cfg.PolicyHandler.List)
	protected.GET("/policies/:id", cfg.PolicyHandler.Get)
	protected.PATCH("/policies/:id", cfg.PolicyHandler.Rename)
	protected.POST("/policies/:id/duplicate", cfg.PolicyHandler.Duplicate)
	protected.DELETE("/policies/:id", cfg.PolicyHandler.Delete)
	protected.PATCH("/policies/:id/steps/:step", cfg.PolicyHandler.UpdateStep)
	// Versions
	protected.POST("/policies/:id/versions", cfg.VersionHandler.Save)
	protected.GET("/policies/:id/versions", cfg.VersionHandler.List)
	protected.GET("/policies/:id/versions/:versionId", cfg.VersionHandler.Get)
	protected.POST("/policies/:id/versions/:versionId", cfg.VersionHandler.Restore)
	// Documents
	protected.GET("/policies/:id/preview", cfg.DocumentHandler.Preview)
	protected.GET("/policies/:id/export", cfg.DocumentHandler.Export)
	// Sharing
	protected.POST("/policies/:id/publish", cfg.ShareHandler.Publish)
	protected.DELETE("/policies/:id/share", cfg.ShareHandler.Revoke)
	// Audit trail
	protected.GET("/policies/:id/audit", cfg.AuditHandler.History)

	return router
}
