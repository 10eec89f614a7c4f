package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/types"
)

type AuditEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.AuditEvent) ([]*types.AuditEvent, error)
	GetByPolicyIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.AuditEvent, error)
	FullDeleteByPolicyIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) error
}

type auditEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	repoLog := baseLog.With("repo", "AuditEventRepo")
	return &auditEventRepo{db: db, log: repoLog}
}

func (ar *auditEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.AuditEvent) ([]*types.AuditEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(events) == 0 {
		return []*types.AuditEvent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (ar *auditEventRepo) GetByPolicyIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.AuditEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.AuditEvent
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

func (ar *auditEventRepo) FullDeleteByPolicyIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(policyIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("policy_id IN ?", policyIDs).
		Delete(&types.AuditEvent{}).Error
}
