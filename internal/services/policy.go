package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/policy"
	"github.com/verithos/policyforge-backend/internal/render"
	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/requestdata"
	"github.com/verithos/policyforge-backend/internal/steps"
	"github.com/verithos/policyforge-backend/internal/types"
)

// PolicyDetail is the questionnaire view of one policy: the record itself
// plus which steps the editor may open next.
type PolicyDetail struct {
	Policy          *types.Policy `json:"policy"`
	CompletedSteps  []int         `json:"completed_steps"`
	AccessibleSteps []int         `json:"accessible_steps"`
}

type PolicyService interface {
	Create(ctx context.Context, name string) (*types.Policy, error)
	List(ctx context.Context) ([]*types.Policy, error)
	Get(ctx context.Context, policyID uuid.UUID) (*PolicyDetail, error)
	Rename(ctx context.Context, policyID uuid.UUID, name string) (*types.Policy, error)
	Duplicate(ctx context.Context, policyID uuid.UUID) (*types.Policy, error)
	Delete(ctx context.Context, policyID uuid.UUID) error
	UpdateStep(ctx context.Context, policyID uuid.UUID, step int, payload json.RawMessage) (*PolicyDetail, error)

	// GetOwned loads a policy and enforces that the caller owns it. Other
	// services build on it for version, render and share operations.
	GetOwned(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (*types.Policy, error)
}

type policyService struct {
	db           *gorm.DB
	log          *logger.Logger
	policyRepo   repos.PolicyRepo
	versionRepo  repos.PolicyVersionRepo
	userRepo     repos.UserRepo
	quotaService QuotaService
	auditService AuditService
	cache        render.ArtifactCache
}

func NewPolicyService(
	db *gorm.DB,
	log *logger.Logger,
	policyRepo repos.PolicyRepo,
	versionRepo repos.PolicyVersionRepo,
	userRepo repos.UserRepo,
	quotaService QuotaService,
	auditService AuditService,
	cache render.ArtifactCache,
) PolicyService {
	serviceLog := log.With("service", "PolicyService")
	return &policyService{
		db:           db,
		log:          serviceLog,
		policyRepo:   policyRepo,
		versionRepo:  versionRepo,
		userRepo:     userRepo,
		quotaService: quotaService,
		auditService: auditService,
		cache:        cache,
	}
}

func (ps *policyService) currentUser(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, NewForbiddenError("not authenticated")
	}
	users, err := ps.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if len(users) == 0 {
		return nil, NewNotFoundError("user")
	}
	return users[0], nil
}

func (ps *policyService) GetOwned(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (*types.Policy, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, NewForbiddenError("not authenticated")
	}
	policies, err := ps.policyRepo.GetByIDs(ctx, tx, []uuid.UUID{policyID})
	if err != nil {
		return nil, fmt.Errorf("fetch policy: %w", err)
	}
	// A policy owned by someone else reads the same as a missing one.
	if len(policies) == 0 || policies[0].UserID != rd.UserID {
		return nil, NewNotFoundError("policy")
	}
	return policies[0], nil
}

func (ps *policyService) Create(ctx context.Context, name string) (*types.Policy, error) {
	user, err := ps.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	name = normalizePolicyName(name)
	if name == "" {
		return nil, NewValidationError("invalid policy", map[string]string{"name": "name is required"})
	}
	if err := ps.quotaService.CheckPolicyCreate(ctx, user); err != nil {
		return nil, err
	}
	p := &types.Policy{
		ID:             uuid.New(),
		UserID:         user.ID,
		Name:           name,
		Status:         types.PolicyStatusDraft,
		StepData:       []byte(`{}`),
		CompletedSteps: []byte(`[]`),
		Version:        1,
	}
	if err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ps.policyRepo.Create(ctx, tx, []*types.Policy{p}); err != nil {
			return fmt.Errorf("create policy: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	ps.auditService.Record(ctx, nil, user.ID, &p.ID, types.AuditPolicyCreated, map[string]string{"name": name})
	return p, nil
}

func (ps *policyService) List(ctx context.Context) ([]*types.Policy, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, NewForbiddenError("not authenticated")
	}
	return ps.policyRepo.GetByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
}

func (ps *policyService) Get(ctx context.Context, policyID uuid.UUID) (*PolicyDetail, error) {
	p, err := ps.GetOwned(ctx, nil, policyID)
	if err != nil {
		return nil, err
	}
	return ps.detail(p)
}

func (ps *policyService) detail(p *types.Policy) (*PolicyDetail, error) {
	completed, err := p.CompletedSet()
	if err != nil {
		return nil, err
	}
	accessible := policy.AccessibleSteps(completed)
	detail := &PolicyDetail{
		Policy:          p,
		CompletedSteps:  make([]int, 0, len(completed)),
		AccessibleSteps: make([]int, 0, len(accessible)),
	}
	for n := 1; n <= types.StepCount; n++ {
		if completed[n] {
			detail.CompletedSteps = append(detail.CompletedSteps, n)
		}
		if accessible[n] {
			detail.AccessibleSteps = append(detail.AccessibleSteps, n)
		}
	}
	return detail, nil
}

func (ps *policyService) Rename(ctx context.Context, policyID uuid.UUID, name string) (*types.Policy, error) {
	name = normalizePolicyName(name)
	if name == "" {
		return nil, NewValidationError("invalid policy", map[string]string{"name": "name is required"})
	}
	var p *types.Policy
	var renamed bool
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = ps.GetOwned(ctx, tx, policyID)
		if err != nil {
			return err
		}
		if p.Name == name {
			return nil
		}
		renamed = true
		p.Name = name
		return ps.policyRepo.Update(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	if renamed {
		ps.auditService.Record(ctx, nil, p.UserID, &p.ID, types.AuditPolicyRenamed, map[string]string{"name": name})
	}
	return p, nil
}

// Duplicate copies the questionnaire state into a fresh draft. History,
// share state and the version counter do not carry over.
func (ps *policyService) Duplicate(ctx context.Context, policyID uuid.UUID) (*types.Policy, error) {
	user, err := ps.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := ps.quotaService.CheckPolicyCreate(ctx, user); err != nil {
		return nil, err
	}
	var dup *types.Policy
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		src, err := ps.GetOwned(ctx, tx, policyID)
		if err != nil {
			return err
		}
		dup = &types.Policy{
			ID:             uuid.New(),
			UserID:         user.ID,
			Name:           src.Name + " (copia)",
			StepData:       append([]byte(nil), src.StepData...),
			CompletedSteps: append([]byte(nil), src.CompletedSteps...),
			Version:        1,
		}
		if err := policy.Recompute(dup); err != nil {
			return err
		}
		// A copy is never published, even when the source was.
		if dup.Status == types.PolicyStatusPublished {
			dup.Status = types.PolicyStatusCompleted
		}
		if _, err := ps.policyRepo.Create(ctx, tx, []*types.Policy{dup}); err != nil {
			return fmt.Errorf("create duplicate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.auditService.Record(ctx, nil, user.ID, &dup.ID, types.AuditPolicyDuplicated, map[string]string{"source": policyID.String()})
	return dup, nil
}

func (ps *policyService) Delete(ctx context.Context, policyID uuid.UUID) error {
	var owner uuid.UUID
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := ps.GetOwned(ctx, tx, policyID)
		if err != nil {
			return err
		}
		owner = p.UserID
		if err := ps.versionRepo.FullDeleteByPolicyIDs(ctx, tx, []uuid.UUID{p.ID}); err != nil {
			return fmt.Errorf("delete versions: %w", err)
		}
		if err := ps.policyRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{p.ID}); err != nil {
			return fmt.Errorf("delete policy: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	ps.cache.Invalidate(ctx, policyID)
	ps.auditService.Record(ctx, nil, owner, &policyID, types.AuditPolicyDeleted, nil)
	return nil
}

func (ps *policyService) UpdateStep(ctx context.Context, policyID uuid.UUID, step int, payload json.RawMessage) (*PolicyDetail, error) {
	validated, fieldErrs := steps.Validate(step, payload)
	if fieldErrs != nil {
		return nil, NewValidationError("invalid step payload", fieldErrs)
	}
	canonical, err := steps.Marshal(validated)
	if err != nil {
		return nil, fmt.Errorf("encode step payload: %w", err)
	}

	var p *types.Policy
	var changed bool
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = ps.GetOwned(ctx, tx, policyID)
		if err != nil {
			return err
		}
		completed, err := p.CompletedSet()
		if err != nil {
			return err
		}
		if !policy.IsStepAccessible(completed, step) {
			return NewForbiddenError(fmt.Sprintf("step %d is not accessible yet", step))
		}
		stepData, err := p.Steps()
		if err != nil {
			return err
		}
		if stepData == nil {
			stepData = map[int]json.RawMessage{}
		}
		// Auto-save fires on a timer; identical payloads must not touch the
		// row or emit events.
		if completed[step] && bytes.Equal(stepData[step], canonical) {
			return nil
		}
		changed = true
		stepData[step] = canonical
		completed[step] = true
		if err := p.SetSteps(stepData); err != nil {
			return err
		}
		if err := p.SetCompleted(completed); err != nil {
			return err
		}
		if err := policy.Recompute(p); err != nil {
			return err
		}
		return ps.policyRepo.Update(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		ps.cache.Invalidate(ctx, policyID)
		ps.auditService.Record(ctx, nil, p.UserID, &p.ID, types.AuditStepSaved, map[string]int{"step": step})
	}
	return ps.detail(p)
}

func normalizePolicyName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
