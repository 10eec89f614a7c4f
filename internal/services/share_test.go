package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/verithos/policyforge-backend/internal/render"
	"github.com/verithos/policyforge-backend/internal/types"
)

func TestPublishRequiresCompletion(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "A medias")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.shareService.Publish(env.ctx, p.ID); err == nil {
		t.Fatal("expected publish of incomplete policy to fail")
	} else if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %T: %v", err, err)
	}

	env.completeAllSteps(t, p.ID)
	published, err := env.shareService.Publish(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != types.PolicyStatusPublished {
		t.Fatalf("status = %s", published.Status)
	}
	if published.ShareToken == nil || *published.ShareToken == "" {
		t.Fatal("publish minted no share token")
	}

	// Publishing again is a no-op that keeps the token.
	token := *published.ShareToken
	again, err := env.shareService.Publish(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if again.ShareToken == nil || *again.ShareToken != token {
		t.Fatal("republish rotated the share token")
	}
}

func TestShareTokenResolutionAndRevocation(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Compartida")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	env.completeAllSteps(t, p.ID)
	published, err := env.shareService.Publish(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	token := *published.ShareToken

	resolved, err := env.shareService.Resolve(env.ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ID != p.ID {
		t.Fatal("token resolved to the wrong policy")
	}

	revoked, err := env.shareService.Revoke(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked.ShareToken != nil {
		t.Fatal("revoke kept the token")
	}
	if revoked.Status != types.PolicyStatusCompleted {
		t.Fatalf("status after revoke = %s", revoked.Status)
	}
	if _, err := env.shareService.Resolve(env.ctx, token); !IsNotFound(err) {
		t.Fatalf("expected revoked token to stop resolving, got %v", err)
	}

	// Revoking an unpublished policy conflicts.
	if _, err := env.shareService.Revoke(env.ctx, p.ID); err == nil {
		t.Fatal("expected revoke of unpublished policy to fail")
	}
}

func TestSharedRenderCarriesFreePlanWatermark(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Pública")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	env.completeAllSteps(t, p.ID)
	published, err := env.shareService.Publish(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	artifact, err := env.renderService.RenderShared(env.ctx, *published.ShareToken, render.FormatHTML)
	if err != nil {
		t.Fatalf("render shared: %v", err)
	}
	if !strings.Contains(string(artifact.Data), `class="watermark"`) {
		t.Fatal("free plan document rendered without watermark")
	}

	// Pro plan drops it.
	env.user.Plan = types.PlanPro
	if err := env.db.Save(env.user).Error; err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	artifact, err = env.renderService.RenderShared(env.ctx, *published.ShareToken, render.FormatHTML)
	if err != nil {
		t.Fatalf("render shared pro: %v", err)
	}
	if strings.Contains(string(artifact.Data), `class="watermark"`) {
		t.Fatal("pro plan document rendered with watermark")
	}
}

func TestExportBundleContainsAllFormats(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Exportable Web")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	env.completeAllSteps(t, p.ID)

	data, filename, err := env.renderService.ExportBundle(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filename != "Exportable-Web.zip" {
		t.Fatalf("bundle filename = %q", filename)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("bundle is not a zip: %v", err)
	}
	got := map[string]bool{}
	for _, f := range zr.File {
		got[f.Name] = true
	}
	for _, name := range []string{"Exportable-Web.pdf", "Exportable-Web.docx", "Exportable-Web.html"} {
		if !got[name] {
			t.Fatalf("bundle missing %s (has %v)", name, got)
		}
	}
}

func TestPreviewReturnsDocumentIR(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.policyService.Create(env.ctx, "Previa")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	doc, err := env.renderService.Preview(env.ctx, p.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if doc.Title != "Previa" {
		t.Fatalf("preview title = %q", doc.Title)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("empty policy preview sections = %d", len(doc.Sections))
	}
}
