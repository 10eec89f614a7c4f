package app

import (
	"github.com/verithos/policyforge-backend/internal/handlers"
	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/sse"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Policy   *handlers.PolicyHandler
	Version  *handlers.VersionHandler
	Document *handlers.DocumentHandler
	Share    *handlers.ShareHandler
	Audit    *handlers.AuditHandler
	SSE      *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *sse.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:     handlers.NewAuthHandler(services.Auth),
		User:     handlers.NewUserHandler(services.User),
		Policy:   handlers.NewPolicyHandler(services.Policy),
		Version:  handlers.NewVersionHandler(services.Version),
		Document: handlers.NewDocumentHandler(services.Render),
		Share:    handlers.NewShareHandler(services.Share),
		Audit:    handlers.NewAuditHandler(services.Audit, services.Policy),
		SSE:      handlers.NewSSEHandler(log, sseHub, services.Policy),
	}
}
