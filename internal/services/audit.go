package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/sse"
	"github.com/verithos/policyforge-backend/internal/types"
)

// AuditService records policy mutations as audit rows and mirrors them onto
// the policy's SSE channel. Recording is best-effort outside the mutating
// transaction; a failed audit write never fails the mutation.
type AuditService interface {
	Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, policyID *uuid.UUID, action types.AuditAction, detail any)
	History(ctx context.Context, policyID uuid.UUID) ([]*types.AuditEvent, error)
}

type auditService struct {
	log       *logger.Logger
	auditRepo repos.AuditEventRepo
	hub       *sse.SSEHub
}

func NewAuditService(log *logger.Logger, auditRepo repos.AuditEventRepo, hub *sse.SSEHub) AuditService {
	serviceLog := log.With("service", "AuditService")
	return &auditService{log: serviceLog, auditRepo: auditRepo, hub: hub}
}

var auditEvents = map[types.AuditAction]sse.SSEEvent{
	types.AuditStepSaved:       sse.SSEEventPolicyStepSaved,
	types.AuditVersionSaved:    sse.SSEEventPolicyVersionSaved,
	types.AuditVersionRestored: sse.SSEEventPolicyVersionRestored,
	types.AuditPolicyPublished: sse.SSEEventPolicyPublished,
	types.AuditShareRevoked:    sse.SSEEventPolicyShareRevoked,
}

func (as *auditService) Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, policyID *uuid.UUID, action types.AuditAction, detail any) {
	var detailJSON []byte
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			as.log.Warn("Failed to encode audit detail", "action", action, "error", err)
		} else {
			detailJSON = b
		}
	}
	event := &types.AuditEvent{
		ID:       uuid.New(),
		UserID:   userID,
		PolicyID: policyID,
		Action:   action,
		Detail:   detailJSON,
	}
	if _, err := as.auditRepo.Create(ctx, tx, []*types.AuditEvent{event}); err != nil {
		as.log.Warn("Failed to record audit event", "action", action, "error", err)
		return
	}
	if as.hub == nil || policyID == nil {
		return
	}
	if sseEvent, ok := auditEvents[action]; ok {
		as.hub.Broadcast(sse.SSEMessage{
			Channel: sse.PolicyChannel(*policyID),
			Event:   sseEvent,
			Data:    event,
		})
	}
}

func (as *auditService) History(ctx context.Context, policyID uuid.UUID) ([]*types.AuditEvent, error) {
	return as.auditRepo.GetByPolicyIDs(ctx, nil, []uuid.UUID{policyID})
}
