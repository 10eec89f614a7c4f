package app

import (
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/repos"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	Policy        repos.PolicyRepo
	PolicyVersion repos.PolicyVersionRepo
	AuditEvent    repos.AuditEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		Policy:        repos.NewPolicyRepo(db, log),
		PolicyVersion: repos.NewPolicyVersionRepo(db, log),
		AuditEvent:    repos.NewAuditEventRepo(db, log),
	}
}
