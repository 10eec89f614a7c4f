package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/render"
	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/types"
)

type RenderService interface {
	RenderOwned(ctx context.Context, policyID uuid.UUID, format render.Format) (*render.Artifact, error)
	RenderShared(ctx context.Context, shareToken string, format render.Format) (*render.Artifact, error)
	RenderWithToken(ctx context.Context, policyID uuid.UUID, shareToken string, format render.Format) (*render.Artifact, error)
	Preview(ctx context.Context, policyID uuid.UUID) (*render.Document, error)
	ExportBundle(ctx context.Context, policyID uuid.UUID) ([]byte, string, error)
}

type renderService struct {
	db            *gorm.DB
	log           *logger.Logger
	policyService PolicyService
	shareService  ShareService
	quotaService  QuotaService
	userRepo      repos.UserRepo
	cache         render.ArtifactCache
	locale        string
}

func NewRenderService(
	db *gorm.DB,
	log *logger.Logger,
	policyService PolicyService,
	shareService ShareService,
	quotaService QuotaService,
	userRepo repos.UserRepo,
	cache render.ArtifactCache,
	locale string,
) RenderService {
	serviceLog := log.With("service", "RenderService")
	if locale == "" {
		locale = render.DefaultLocale
	}
	return &renderService{
		db:            db,
		log:           serviceLog,
		policyService: policyService,
		shareService:  shareService,
		quotaService:  quotaService,
		userRepo:      userRepo,
		cache:         cache,
		locale:        locale,
	}
}

// watermarkFor decides the watermark from the owner's plan, never from the
// request. Free-plan documents always carry it.
func (rs *renderService) watermarkFor(ctx context.Context, p *types.Policy) (bool, error) {
	owners, err := rs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{p.UserID})
	if err != nil {
		return true, fmt.Errorf("fetch owner: %w", err)
	}
	if len(owners) == 0 {
		return true, NewNotFoundError("user")
	}
	return rs.quotaService.ForceWatermark(owners[0]), nil
}

func (rs *renderService) renderPolicy(ctx context.Context, p *types.Policy, format render.Format, watermark bool) (*render.Artifact, error) {
	if data, ok := rs.cache.Get(ctx, p.ID, p.Version, format, watermark); ok {
		return render.ArtifactFromCache(format, data), nil
	}
	sections, err := render.BuildIR(p, rs.locale)
	if err != nil {
		return nil, err
	}
	doc, err := render.NewDocument(p, sections, rs.locale)
	if err != nil {
		return nil, err
	}
	artifact, err := render.Render(doc, format, render.Options{Watermark: watermark})
	if err != nil {
		return nil, err
	}
	rs.cache.Set(ctx, p.ID, p.Version, format, watermark, artifact.Data)
	return artifact, nil
}

func (rs *renderService) RenderOwned(ctx context.Context, policyID uuid.UUID, format render.Format) (*render.Artifact, error) {
	p, err := rs.policyService.GetOwned(ctx, nil, policyID)
	if err != nil {
		return nil, err
	}
	watermark, err := rs.watermarkFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return rs.renderPolicy(ctx, p, format, watermark)
}

func (rs *renderService) RenderShared(ctx context.Context, shareToken string, format render.Format) (*render.Artifact, error) {
	p, err := rs.shareService.Resolve(ctx, shareToken)
	if err != nil {
		return nil, err
	}
	watermark, err := rs.watermarkFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return rs.renderPolicy(ctx, p, format, watermark)
}

// RenderWithToken is the share variant of RenderOwned: the token stands in
// for ownership, but it must resolve to the policy being requested.
func (rs *renderService) RenderWithToken(ctx context.Context, policyID uuid.UUID, shareToken string, format render.Format) (*render.Artifact, error) {
	p, err := rs.shareService.Resolve(ctx, shareToken)
	if err != nil {
		return nil, err
	}
	if p.ID != policyID {
		return nil, NewNotFoundError("policy")
	}
	watermark, err := rs.watermarkFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return rs.renderPolicy(ctx, p, format, watermark)
}

// Preview returns the document IR so the editor can show a live outline
// without producing a full artifact.
func (rs *renderService) Preview(ctx context.Context, policyID uuid.UUID) (*render.Document, error) {
	p, err := rs.policyService.GetOwned(ctx, nil, policyID)
	if err != nil {
		return nil, err
	}
	sections, err := render.BuildIR(p, rs.locale)
	if err != nil {
		return nil, err
	}
	return render.NewDocument(p, sections, rs.locale)
}

// ExportBundle renders every format concurrently and packs them in a zip.
func (rs *renderService) ExportBundle(ctx context.Context, policyID uuid.UUID) ([]byte, string, error) {
	p, err := rs.policyService.GetOwned(ctx, nil, policyID)
	if err != nil {
		return nil, "", err
	}
	watermark, err := rs.watermarkFor(ctx, p)
	if err != nil {
		return nil, "", err
	}

	formats := []render.Format{render.FormatPDF, render.FormatDOCX, render.FormatHTML}
	artifacts := make([]*render.Artifact, len(formats))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		i, format := i, format
		g.Go(func() error {
			artifact, err := rs.renderPolicy(gctx, p, format, watermark)
			if err != nil {
				return err
			}
			mu.Lock()
			artifacts[i] = artifact
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	base := exportBaseName(p.Name)
	for _, artifact := range artifacts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   base + "." + artifact.FileExt,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, "", fmt.Errorf("zip entry: %w", err)
		}
		if _, err := w.Write(artifact.Data); err != nil {
			return nil, "", fmt.Errorf("zip write: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("zip close: %w", err)
	}
	return buf.Bytes(), base + ".zip", nil
}

// exportBaseName derives a filesystem-safe name from the policy title.
func exportBaseName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "policy"
	}
	return string(out)
}
