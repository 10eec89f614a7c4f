package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/verithos/policyforge-backend/internal/steps"
	"github.com/verithos/policyforge-backend/internal/types"
)

func TestSaveVersionKeepsCounter(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Con historial")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.policyService.UpdateStep(env.ctx, p.ID, 1, steps.ValidExample(1)); err != nil {
		t.Fatalf("step 1: %v", err)
	}

	snapshot, err := env.versionService.SaveVersion(env.ctx, p.ID, "primer borrador")
	if err != nil {
		t.Fatalf("save version: %v", err)
	}
	if snapshot.Version != 1 {
		t.Fatalf("snapshot version = %d", snapshot.Version)
	}
	if snapshot.AutoBackup {
		t.Fatal("manual save flagged as auto backup")
	}

	detail, err := env.policyService.Get(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Policy.Version != 1 {
		t.Fatalf("saving a version advanced the counter to %d", detail.Policy.Version)
	}

	content, err := snapshot.DecodeContent()
	if err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if len(content.CompletedSteps) != 1 || content.CompletedSteps[0] != 1 {
		t.Fatalf("snapshot completed steps = %v", content.CompletedSteps)
	}
}

func TestRestoreNeverLosesHistory(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Restaurable")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.policyService.UpdateStep(env.ctx, p.ID, 1, steps.ValidExample(1)); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	saved, err := env.versionService.SaveVersion(env.ctx, p.ID, "estado bueno")
	if err != nil {
		t.Fatalf("save version: %v", err)
	}

	// Two edits after the snapshot.
	edited := json.RawMessage(`{
		"company_name": "Cambiada SL",
		"legal_id": "B98765432",
		"address": "Calle Nueva 2",
		"city": "Sevilla",
		"country": "ES",
		"email": "dpo@cambiada.example"
	}`)
	if _, err := env.policyService.UpdateStep(env.ctx, p.ID, 1, edited); err != nil {
		t.Fatalf("edit step 1: %v", err)
	}
	if _, err := env.policyService.UpdateStep(env.ctx, p.ID, 2, steps.ValidExample(2)); err != nil {
		t.Fatalf("step 2: %v", err)
	}

	restored, err := env.versionService.RestoreVersion(env.ctx, p.ID, saved.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Version != 2 {
		t.Fatalf("version after restore = %d, want 2", restored.Version)
	}

	stepData, err := restored.Steps()
	if err != nil {
		t.Fatalf("decode steps: %v", err)
	}
	var identity struct {
		CompanyName string `json:"company_name"`
	}
	if err := json.Unmarshal(stepData[1], &identity); err != nil {
		t.Fatalf("decode step 1: %v", err)
	}
	if identity.CompanyName != "Acme SL" {
		t.Fatalf("restored company name = %q", identity.CompanyName)
	}
	if _, ok := stepData[2]; ok {
		t.Fatal("restore kept a step that postdates the snapshot")
	}

	// Exactly two snapshots exist: the manual save and the automatic backup
	// of the pre-restore state.
	versions, err := env.versionService.ListVersions(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("version rows = %d, want 2", len(versions))
	}
	backups := 0
	for _, v := range versions {
		if v.AutoBackup {
			backups++
		}
	}
	if backups != 1 {
		t.Fatalf("auto backups = %d, want 1", backups)
	}
}

func TestRestoreForeignVersionIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.policyService.Create(env.ctx, "A")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := env.policyService.Create(env.ctx, "B")
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	savedB, err := env.versionService.SaveVersion(env.ctx, b.ID, "de B")
	if err != nil {
		t.Fatalf("save b: %v", err)
	}

	// Restoring B's snapshot onto A must fail without mutating A.
	if _, err := env.versionService.RestoreVersion(env.ctx, a.ID, savedB.ID); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	detail, err := env.policyService.Get(env.ctx, a.ID)
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if detail.Policy.Version != 1 {
		t.Fatalf("failed restore mutated the policy: version = %d", detail.Policy.Version)
	}
	versions, err := env.versionService.ListVersions(env.ctx, a.ID)
	if err != nil {
		t.Fatalf("list a: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("failed restore left %d version rows", len(versions))
	}
}

func TestRestoreUnknownVersion(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Sin historial")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.versionService.RestoreVersion(env.ctx, p.ID, uuid.New()); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRestorePreservesPublishedOnlyWhenComplete(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Publicada")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.policyService.UpdateStep(env.ctx, p.ID, 1, steps.ValidExample(1)); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	partial, err := env.versionService.SaveVersion(env.ctx, p.ID, "incompleta")
	if err != nil {
		t.Fatalf("save partial: %v", err)
	}
	env.completeAllSteps(t, p.ID)
	if _, err := env.shareService.Publish(env.ctx, p.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Restoring the incomplete snapshot drops the published status.
	restored, err := env.versionService.RestoreVersion(env.ctx, p.ID, partial.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Status != types.PolicyStatusInProgress {
		t.Fatalf("status after restoring partial snapshot = %s", restored.Status)
	}
}
