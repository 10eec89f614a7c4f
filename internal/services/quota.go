package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/types"
)

// QuotaService enforces plan limits. The free plan caps how many policies a
// user can own and forces the draft watermark on every rendered document.
type QuotaService interface {
	CheckPolicyCreate(ctx context.Context, user *types.User) error
	ForceWatermark(user *types.User) bool
}

type quotaService struct {
	log           *logger.Logger
	policyRepo    repos.PolicyRepo
	freePolicyCap int64
}

func NewQuotaService(log *logger.Logger, policyRepo repos.PolicyRepo, freePolicyCap int64) QuotaService {
	serviceLog := log.With("service", "QuotaService")
	return &quotaService{log: serviceLog, policyRepo: policyRepo, freePolicyCap: freePolicyCap}
}

func (qs *quotaService) CheckPolicyCreate(ctx context.Context, user *types.User) error {
	if user.Plan != types.PlanFree {
		return nil
	}
	count, err := qs.policyRepo.CountByUserIDs(ctx, nil, []uuid.UUID{user.ID})
	if err != nil {
		return fmt.Errorf("count policies: %w", err)
	}
	if count >= qs.freePolicyCap {
		return NewQuotaError(fmt.Sprintf("free plan allows at most %d policies", qs.freePolicyCap))
	}
	return nil
}

func (qs *quotaService) ForceWatermark(user *types.User) bool {
	return user.Plan == types.PlanFree
}
