package app

import (
	"github.com/gin-gonic/gin"

	"github.com/verithos/policyforge-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		UserHandler:     handlers.User,
		PolicyHandler:   handlers.Policy,
		VersionHandler:  handlers.Version,
		DocumentHandler: handlers.Document,
		ShareHandler:    handlers.Share,
		AuditHandler:    handlers.Audit,
		SSEHandler:      handlers.SSE,
		AllowOrigins:    cfg.AllowOrigins,
	})
}
