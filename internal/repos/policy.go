package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/types"
)

type PolicyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.Policy, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Policy, error)
	GetByShareTokens(ctx context.Context, tx *gorm.DB, shareTokens []string) ([]*types.Policy, error)
	CountByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, policy *types.Policy) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) error
}

type policyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	repoLog := baseLog.With("repo", "PolicyRepo")
	return &policyRepo{db: db, log: repoLog}
}

func (pr *policyRepo) Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(policies) == 0 {
		return []*types.Policy{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

func (pr *policyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Policy
	if len(policyIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", policyIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *policyRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Policy
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *policyRepo) GetByShareTokens(ctx context.Context, tx *gorm.DB, shareTokens []string) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Policy
	if len(shareTokens) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("share_token IN ?", shareTokens).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *policyRepo) CountByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Policy{}).
		Where("user_id IN ?", userIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (pr *policyRepo) Update(ctx context.Context, tx *gorm.DB, policy *types.Policy) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Save(policy).Error
}

func (pr *policyRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(policyIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", policyIDs).
		Delete(&types.Policy{}).Error
}

func (pr *policyRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(policyIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("id IN ?", policyIDs).
		Delete(&types.Policy{}).Error
}
