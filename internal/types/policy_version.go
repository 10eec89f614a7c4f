package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PolicyContent is the frozen payload of one version snapshot. It is the
// JSON contract stored in policy_version.content and is never mutated after
// the row is written.
type PolicyContent struct {
	StepData       map[string]json.RawMessage `json:"step_data"`
	CompletedSteps []int                      `json:"completed_steps"`
	CompletionPct  int                        `json:"completion_pct"`
}

type PolicyVersion struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	PolicyID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_policy_version" json:"policy_id"`
	Policy      *Policy        `gorm:"constraint:OnDelete:CASCADE;foreignKey:PolicyID;references:ID" json:"policy,omitempty"`
	Version     int            `gorm:"column:version;not null;index:idx_policy_version" json:"version"`
	Content     datatypes.JSON `gorm:"column:content;type:jsonb;not null" json:"content"`
	ChangeNotes string         `gorm:"column:change_notes" json:"change_notes"`
	ChangedBy   uuid.UUID      `gorm:"type:uuid;column:changed_by;not null" json:"changed_by"`
	AutoBackup  bool           `gorm:"column:auto_backup;not null;default:false" json:"auto_backup"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PolicyVersion) TableName() string { return "policy_version" }

func (pv *PolicyVersion) DecodeContent() (*PolicyContent, error) {
	var content PolicyContent
	if err := json.Unmarshal(pv.Content, &content); err != nil {
		return nil, fmt.Errorf("decode version content: %w", err)
	}
	if content.StepData == nil {
		content.StepData = map[string]json.RawMessage{}
	}
	return &content, nil
}

// SnapshotContent freezes the policy's live step payloads and completion
// state into a version content blob.
func SnapshotContent(p *Policy) (datatypes.JSON, error) {
	steps, err := p.Steps()
	if err != nil {
		return nil, err
	}
	completed, err := p.CompletedSet()
	if err != nil {
		return nil, err
	}
	content := PolicyContent{
		StepData:       make(map[string]json.RawMessage, len(steps)),
		CompletedSteps: make([]int, 0, len(completed)),
		CompletionPct:  p.CompletionPct,
	}
	for n, v := range steps {
		content.StepData[fmt.Sprintf("%d", n)] = v
	}
	for n := 1; n <= StepCount; n++ {
		if completed[n] {
			content.CompletedSteps = append(content.CompletedSteps, n)
		}
	}
	b, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode version content: %w", err)
	}
	return datatypes.JSON(b), nil
}
