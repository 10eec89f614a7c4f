package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/types"
)

type PolicyVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, versions []*types.PolicyVersion) ([]*types.PolicyVersion, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) ([]*types.PolicyVersion, error)
	GetByPolicyIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.PolicyVersion, error)
	FullDeleteByPolicyIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) error
}

type policyVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyVersionRepo(db *gorm.DB, baseLog *logger.Logger) PolicyVersionRepo {
	repoLog := baseLog.With("repo", "PolicyVersionRepo")
	return &policyVersionRepo{db: db, log: repoLog}
}

func (vr *policyVersionRepo) Create(ctx context.Context, tx *gorm.DB, versions []*types.PolicyVersion) ([]*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if len(versions) == 0 {
		return []*types.PolicyVersion{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (vr *policyVersionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) ([]*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var results []*types.PolicyVersion
	if len(versionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", versionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByPolicyIDs returns snapshots newest first so the history endpoint can
// serve them without re-sorting.
func (vr *policyVersionRepo) GetByPolicyIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var results []*types.PolicyVersion
	if len(policyIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("policy_id IN ?", policyIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (vr *policyVersionRepo) FullDeleteByPolicyIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if len(policyIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("policy_id IN ?", policyIDs).
		Delete(&types.PolicyVersion{}).Error
}
