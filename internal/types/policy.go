package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PolicyStatus string

const (
	PolicyStatusDraft      PolicyStatus = "draft"
	PolicyStatusInProgress PolicyStatus = "in_progress"
	PolicyStatusCompleted  PolicyStatus = "completed"
	PolicyStatusPublished  PolicyStatus = "published"
)

// StepCount is the number of wizard steps a policy is built from.
const StepCount = 12

type Policy struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Status         PolicyStatus   `gorm:"column:status;not null;default:'draft'" json:"status"`
	StepData       datatypes.JSON `gorm:"column:step_data;type:jsonb" json:"step_data"`
	CompletedSteps datatypes.JSON `gorm:"column:completed_steps;type:jsonb" json:"completed_steps"`
	CompletionPct  int            `gorm:"column:completion_pct;not null;default:0" json:"completion_pct"`
	Version        int            `gorm:"column:version;not null;default:1" json:"version"`
	ShareToken     *string        `gorm:"column:share_token;uniqueIndex" json:"share_token,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Policy) TableName() string { return "policy" }

// Steps decodes the step_data jsonb column into a step-number keyed map.
// A nil column decodes to an empty map.
func (p *Policy) Steps() (map[int]json.RawMessage, error) {
	out := map[int]json.RawMessage{}
	if len(p.StepData) == 0 {
		return out, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(p.StepData, &raw); err != nil {
		return nil, fmt.Errorf("decode step_data: %w", err)
	}
	for k, v := range raw {
		var n int
		if _, err := fmt.Sscanf(k, "%d", &n); err != nil {
			return nil, fmt.Errorf("decode step_data key %q: %w", k, err)
		}
		out[n] = v
	}
	return out, nil
}

func (p *Policy) SetSteps(steps map[int]json.RawMessage) error {
	raw := make(map[string]json.RawMessage, len(steps))
	for n, v := range steps {
		raw[fmt.Sprintf("%d", n)] = v
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode step_data: %w", err)
	}
	p.StepData = datatypes.JSON(b)
	return nil
}

// CompletedSet decodes completed_steps into a set. A nil column is empty.
func (p *Policy) CompletedSet() (map[int]bool, error) {
	out := map[int]bool{}
	if len(p.CompletedSteps) == 0 {
		return out, nil
	}
	var nums []int
	if err := json.Unmarshal(p.CompletedSteps, &nums); err != nil {
		return nil, fmt.Errorf("decode completed_steps: %w", err)
	}
	for _, n := range nums {
		out[n] = true
	}
	return out, nil
}

func (p *Policy) SetCompleted(set map[int]bool) error {
	nums := make([]int, 0, len(set))
	for n, ok := range set {
		if ok {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	b, err := json.Marshal(nums)
	if err != nil {
		return fmt.Errorf("encode completed_steps: %w", err)
	}
	p.CompletedSteps = datatypes.JSON(b)
	return nil
}
