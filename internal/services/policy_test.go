package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/render"
	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/repos/testutil"
	"github.com/verithos/policyforge-backend/internal/requestdata"
	"github.com/verithos/policyforge-backend/internal/steps"
	"github.com/verithos/policyforge-backend/internal/types"
)

type testEnv struct {
	db             *gorm.DB
	user           *types.User
	ctx            context.Context
	policyService  PolicyService
	versionService VersionService
	shareService   ShareService
	renderService  RenderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)

	userRepo := repos.NewUserRepo(db, log)
	policyRepo := repos.NewPolicyRepo(db, log)
	versionRepo := repos.NewPolicyVersionRepo(db, log)
	auditRepo := repos.NewAuditEventRepo(db, log)

	cache := render.NewNoopCache()
	auditService := NewAuditService(log, auditRepo, nil)
	quotaService := NewQuotaService(log, policyRepo, 2)
	policyService := NewPolicyService(db, log, policyRepo, versionRepo, userRepo, quotaService, auditService, cache)
	versionService := NewVersionService(db, log, policyService, policyRepo, versionRepo, auditService, cache)
	shareService := NewShareService(db, log, policyService, policyRepo, auditService)
	renderService := NewRenderService(db, log, policyService, shareService, quotaService, userRepo, cache, "es")

	user := testutil.SeedUser(t, db, "owner@example.com")
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: user.ID})

	return &testEnv{
		db:             db,
		user:           user,
		ctx:            ctx,
		policyService:  policyService,
		versionService: versionService,
		shareService:   shareService,
		renderService:  renderService,
	}
}

func (env *testEnv) completeAllSteps(t *testing.T, policyID uuid.UUID) *PolicyDetail {
	t.Helper()
	var detail *PolicyDetail
	for step := 1; step <= types.StepCount; step++ {
		var err error
		detail, err = env.policyService.UpdateStep(env.ctx, policyID, step, steps.ValidExample(step))
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}
	return detail
}

func TestUpdateStepProgression(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Política web")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != types.PolicyStatusDraft {
		t.Fatalf("new policy status = %s", p.Status)
	}

	// Step 3 is locked until step 2 is done.
	if _, err := env.policyService.UpdateStep(env.ctx, p.ID, 3, steps.ValidExample(3)); err == nil {
		t.Fatal("expected step 3 to be inaccessible")
	} else if _, ok := err.(*ForbiddenError); !ok {
		t.Fatalf("expected ForbiddenError, got %T: %v", err, err)
	}

	detail, err := env.policyService.UpdateStep(env.ctx, p.ID, 1, steps.ValidExample(1))
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if detail.Policy.Status != types.PolicyStatusInProgress {
		t.Fatalf("status after first step = %s", detail.Policy.Status)
	}
	if detail.Policy.CompletionPct != 8 {
		t.Fatalf("pct after one step = %d", detail.Policy.CompletionPct)
	}
	if len(detail.AccessibleSteps) != 2 || detail.AccessibleSteps[1] != 2 {
		t.Fatalf("accessible after step 1 = %v", detail.AccessibleSteps)
	}

	detail = env.completeAllSteps(t, p.ID)
	if detail.Policy.Status != types.PolicyStatusCompleted {
		t.Fatalf("status after all steps = %s", detail.Policy.Status)
	}
	if detail.Policy.CompletionPct != 100 {
		t.Fatalf("pct after all steps = %d", detail.Policy.CompletionPct)
	}
}

func TestUpdateStepRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Política web")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = env.policyService.UpdateStep(env.ctx, p.ID, 1, json.RawMessage(`{"company_name":""}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if len(verr.Fields) == 0 {
		t.Fatal("validation error carries no field messages")
	}

	// Nothing was persisted.
	detail, err := env.policyService.Get(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.CompletedSteps) != 0 {
		t.Fatalf("completed steps after rejected save = %v", detail.CompletedSteps)
	}
}

func TestUpdateStepNoOpKeepsTimestamp(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Política web")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := env.policyService.UpdateStep(env.ctx, p.ID, 1, steps.ValidExample(1))
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}
	again, err := env.policyService.UpdateStep(env.ctx, p.ID, 1, steps.ValidExample(1))
	if err != nil {
		t.Fatalf("repeat step 1: %v", err)
	}
	if !again.Policy.UpdatedAt.Equal(first.Policy.UpdatedAt) {
		t.Fatal("identical auto-save payload touched the policy row")
	}
}

func TestUpdateStepUncompletesLaterState(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Política web")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	env.completeAllSteps(t, p.ID)

	// Editing an earlier step with different content keeps the policy
	// completed: every step stays completed, only content changes.
	detail, err := env.policyService.UpdateStep(env.ctx, p.ID, 1, json.RawMessage(`{
		"company_name": "Otra Empresa SL",
		"legal_id": "B98765432",
		"address": "Calle Real 1",
		"city": "Valencia",
		"country": "ES",
		"email": "dpo@otra.example"
	}`))
	if err != nil {
		t.Fatalf("edit step 1: %v", err)
	}
	if detail.Policy.Status != types.PolicyStatusCompleted {
		t.Fatalf("status after edit = %s", detail.Policy.Status)
	}
	if detail.Policy.CompletionPct != 100 {
		t.Fatalf("pct after edit = %d", detail.Policy.CompletionPct)
	}
}

func TestDuplicateResetsHistoryAndShare(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Original")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	env.completeAllSteps(t, p.ID)
	if _, err := env.versionService.SaveVersion(env.ctx, p.ID, "v1"); err != nil {
		t.Fatalf("save version: %v", err)
	}
	if _, err := env.shareService.Publish(env.ctx, p.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	dup, err := env.policyService.Duplicate(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if dup.ID == p.ID {
		t.Fatal("duplicate reuses the source id")
	}
	if dup.Name != "Original (copia)" {
		t.Fatalf("duplicate name = %q", dup.Name)
	}
	if dup.Version != 1 {
		t.Fatalf("duplicate version = %d", dup.Version)
	}
	if dup.ShareToken != nil {
		t.Fatal("duplicate carries the share token")
	}
	if dup.Status != types.PolicyStatusCompleted {
		t.Fatalf("duplicate status = %s", dup.Status)
	}
	versions, err := env.versionService.ListVersions(env.ctx, dup.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("duplicate has %d versions", len(versions))
	}
}

func TestDeleteCascadesVersions(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Para borrar")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	env.completeAllSteps(t, p.ID)
	if _, err := env.versionService.SaveVersion(env.ctx, p.ID, "antes de borrar"); err != nil {
		t.Fatalf("save version: %v", err)
	}
	if err := env.policyService.Delete(env.ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.policyService.Get(env.ctx, p.ID); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	var count int64
	if err := env.db.Model(&types.PolicyVersion{}).Where("policy_id = ?", p.ID).Count(&count).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if count != 0 {
		t.Fatalf("versions left after delete = %d", count)
	}
}

func TestOtherUsersPolicyReadsAsMissing(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Privada")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stranger := testutil.SeedUser(t, env.db, "stranger@example.com")
	strangerCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: stranger.ID})
	if _, err := env.policyService.Get(strangerCtx, p.ID); !IsNotFound(err) {
		t.Fatalf("expected not found for foreign policy, got %v", err)
	}
}

func TestQuotaBlocksFreePlan(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 2; i++ {
		if _, err := env.policyService.Create(env.ctx, "Política"); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	_, err := env.policyService.Create(env.ctx, "Una más")
	if err == nil {
		t.Fatal("expected quota error")
	}
	if _, ok := err.(*QuotaError); !ok {
		t.Fatalf("expected QuotaError, got %T: %v", err, err)
	}

	// Pro users are not capped.
	env.user.Plan = types.PlanPro
	if err := env.db.Save(env.user).Error; err != nil {
		t.Fatalf("upgrade plan: %v", err)
	}
	if _, err := env.policyService.Create(env.ctx, "Una más"); err != nil {
		t.Fatalf("pro create: %v", err)
	}
}
