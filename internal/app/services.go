package app

import (
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/render"
	"github.com/verithos/policyforge-backend/internal/services"
	"github.com/verithos/policyforge-backend/internal/sse"
)

type Services struct {
	Auth    services.AuthService
	User    services.UserService
	Quota   services.QuotaService
	Audit   services.AuditService
	Policy  services.PolicyService
	Version services.VersionService
	Share   services.ShareService
	Render  services.RenderService

	ArtifactCache render.ArtifactCache
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *sse.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	var cache render.ArtifactCache
	if cfg.RedisAddr != "" {
		var err error
		cache, err = render.NewArtifactCache(log, cfg.RedisAddr, cfg.ArtifactCacheTTL)
		if err != nil {
			log.Warn("Artifact cache unavailable, rendering uncached", "error", err)
			cache = render.NewNoopCache()
		}
	} else {
		cache = render.NewNoopCache()
	}

	authService := services.NewAuthService(db, log, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := services.NewUserService(db, log, r.User)
	auditService := services.NewAuditService(log, r.AuditEvent, hub)
	quotaService := services.NewQuotaService(log, r.Policy, cfg.FreePolicyCap)
	policyService := services.NewPolicyService(db, log, r.Policy, r.PolicyVersion, r.User, quotaService, auditService, cache)
	versionService := services.NewVersionService(db, log, policyService, r.Policy, r.PolicyVersion, auditService, cache)
	shareService := services.NewShareService(db, log, policyService, r.Policy, auditService)
	renderService := services.NewRenderService(db, log, policyService, shareService, quotaService, r.User, cache, cfg.DocumentLocale)

	return Services{
		Auth:          authService,
		User:          userService,
		Quota:         quotaService,
		Audit:         auditService,
		Policy:        policyService,
		Version:       versionService,
		Share:         shareService,
		Render:        renderService,
		ArtifactCache: cache,
	}, nil
}
