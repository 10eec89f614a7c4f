package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/requestdata"
	"github.com/verithos/policyforge-backend/internal/types"
)

type ShareService interface {
	Publish(ctx context.Context, policyID uuid.UUID) (*types.Policy, error)
	Revoke(ctx context.Context, policyID uuid.UUID) (*types.Policy, error)
	Resolve(ctx context.Context, shareToken string) (*types.Policy, error)
}

type shareService struct {
	db            *gorm.DB
	log           *logger.Logger
	policyService PolicyService
	policyRepo    repos.PolicyRepo
	auditService  AuditService
}

func NewShareService(
	db *gorm.DB,
	log *logger.Logger,
	policyService PolicyService,
	policyRepo repos.PolicyRepo,
	auditService AuditService,
) ShareService {
	serviceLog := log.With("service", "ShareService")
	return &shareService{
		db:            db,
		log:           serviceLog,
		policyService: policyService,
		policyRepo:    policyRepo,
		auditService:  auditService,
	}
}

// Publish mints a share token and moves the policy to published. Only a
// fully completed questionnaire can be published.
func (ss *shareService) Publish(ctx context.Context, policyID uuid.UUID) (*types.Policy, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, NewForbiddenError("not authenticated")
	}
	var p *types.Policy
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = ss.policyService.GetOwned(ctx, tx, policyID)
		if err != nil {
			return err
		}
		if p.Status == types.PolicyStatusPublished && p.ShareToken != nil {
			return nil
		}
		if p.Status != types.PolicyStatusCompleted {
			return NewConflictError("only a completed policy can be published")
		}
		token := uuid.New().String()
		p.ShareToken = &token
		p.Status = types.PolicyStatusPublished
		return ss.policyRepo.Update(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	ss.auditService.Record(ctx, nil, rd.UserID, &p.ID, types.AuditPolicyPublished, nil)
	return p, nil
}

// Revoke drops the share token. Existing links stop resolving immediately.
func (ss *shareService) Revoke(ctx context.Context, policyID uuid.UUID) (*types.Policy, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, NewForbiddenError("not authenticated")
	}
	var p *types.Policy
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = ss.policyService.GetOwned(ctx, tx, policyID)
		if err != nil {
			return err
		}
		if p.ShareToken == nil {
			return NewConflictError("policy is not published")
		}
		p.ShareToken = nil
		if p.Status == types.PolicyStatusPublished {
			p.Status = types.PolicyStatusCompleted
		}
		return ss.policyRepo.Update(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	ss.auditService.Record(ctx, nil, rd.UserID, &p.ID, types.AuditShareRevoked, nil)
	return p, nil
}

// Resolve maps a share token to its policy. Used by the public document
// endpoint, so there is no caller identity to check.
func (ss *shareService) Resolve(ctx context.Context, shareToken string) (*types.Policy, error) {
	if shareToken == "" {
		return nil, NewNotFoundError("policy")
	}
	policies, err := ss.policyRepo.GetByShareTokens(ctx, nil, []string{shareToken})
	if err != nil {
		return nil, fmt.Errorf("resolve share token: %w", err)
	}
	if len(policies) == 0 || policies[0].Status != types.PolicyStatusPublished {
		return nil, NewNotFoundError("policy")
	}
	return policies[0], nil
}
