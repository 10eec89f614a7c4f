package app

import (
	"strings"
	"time"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr        string
	ArtifactCacheTTL time.Duration

	DocumentLocale string
	FreePolicyCap  int64

	AllowOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
	cacheTTLSeconds := utils.GetEnvAsInt("ARTIFACT_CACHE_TTL", 3600, log)
	documentLocale := utils.GetEnv("DOCUMENT_LOCALE", "es", log)
	freePolicyCap := utils.GetEnvAsInt("FREE_POLICY_CAP", 3, log)
	originsRaw := utils.GetEnv("ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)

	var origins []string
	for _, o := range strings.Split(originsRaw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		JWTSecretKey:     jwtSecretKey,
		AccessTokenTTL:   time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL:  time.Duration(refreshTokenTTLSeconds) * time.Second,
		RedisAddr:        redisAddr,
		ArtifactCacheTTL: time.Duration(cacheTTLSeconds) * time.Second,
		DocumentLocale:   documentLocale,
		FreePolicyCap:    int64(freePolicyCap),
		AllowOrigins:     origins,
	}
}
