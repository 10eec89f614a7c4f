package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditPolicyCreated    AuditAction = "PolicyCreated"
	AuditPolicyRenamed    AuditAction = "PolicyRenamed"
	AuditPolicyDuplicated AuditAction = "PolicyDuplicated"
	AuditPolicyDeleted    AuditAction = "PolicyDeleted"
	AuditStepSaved        AuditAction = "StepSaved"
	AuditVersionSaved     AuditAction = "VersionSaved"
	AuditVersionRestored  AuditAction = "VersionRestored"
	AuditPolicyPublished  AuditAction = "PolicyPublished"
	AuditShareRevoked     AuditAction = "ShareRevoked"
)

type AuditEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	PolicyID  *uuid.UUID     `gorm:"type:uuid;index" json:"policy_id,omitempty"`
	Action    AuditAction    `gorm:"column:action;not null" json:"action"`
	Detail    datatypes.JSON `gorm:"column:detail;type:jsonb" json:"detail,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditEvent) TableName() string { return "audit_event" }
