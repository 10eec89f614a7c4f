package testutil

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/types"
)

// NewTestDB opens a private in-memory sqlite database with the full schema
// migrated. Each call returns an isolated database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Policy{},
		&types.PolicyVersion{},
		&types.AuditEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func NewTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func SeedUser(t *testing.T, db *gorm.DB, email string) *types.User {
	t.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "x",
		Plan:     types.PlanFree,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedPolicy(t *testing.T, db *gorm.DB, userID uuid.UUID, name string) *types.Policy {
	t.Helper()
	p := &types.Policy{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		Status:         types.PolicyStatusDraft,
		StepData:       []byte(`{}`),
		CompletedSteps: []byte(`[]`),
		Version:        1,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed policy: %v", err)
	}
	return p
}

// SeedStep stores a raw payload under one step of a seeded policy without
// going through validation. Test fixtures are assumed well formed.
func SeedStep(t *testing.T, db *gorm.DB, p *types.Policy, step int, payload string) {
	t.Helper()
	stepData, err := p.Steps()
	if err != nil {
		t.Fatalf("decode steps: %v", err)
	}
	if stepData == nil {
		stepData = map[int]json.RawMessage{}
	}
	stepData[step] = json.RawMessage(payload)
	if err := p.SetSteps(stepData); err != nil {
		t.Fatalf("set steps: %v", err)
	}
	if err := db.Save(p).Error; err != nil {
		t.Fatalf("save policy: %v", err)
	}
}
