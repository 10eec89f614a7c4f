package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/policy"
	"github.com/verithos/policyforge-backend/internal/render"
	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/requestdata"
	"github.com/verithos/policyforge-backend/internal/types"
)

type VersionService interface {
	SaveVersion(ctx context.Context, policyID uuid.UUID, changeNotes string) (*types.PolicyVersion, error)
	ListVersions(ctx context.Context, policyID uuid.UUID) ([]*types.PolicyVersion, error)
	GetVersion(ctx context.Context, policyID, versionID uuid.UUID) (*types.PolicyVersion, error)
	RestoreVersion(ctx context.Context, policyID, versionID uuid.UUID) (*types.Policy, error)
}

type versionService struct {
	db            *gorm.DB
	log           *logger.Logger
	policyService PolicyService
	policyRepo    repos.PolicyRepo
	versionRepo   repos.PolicyVersionRepo
	auditService  AuditService
	cache         render.ArtifactCache
}

func NewVersionService(
	db *gorm.DB,
	log *logger.Logger,
	policyService PolicyService,
	policyRepo repos.PolicyRepo,
	versionRepo repos.PolicyVersionRepo,
	auditService AuditService,
	cache render.ArtifactCache,
) VersionService {
	serviceLog := log.With("service", "VersionService")
	return &versionService{
		db:            db,
		log:           serviceLog,
		policyService: policyService,
		policyRepo:    policyRepo,
		versionRepo:   versionRepo,
		auditService:  auditService,
		cache:         cache,
	}
}

// SaveVersion freezes the live questionnaire state under the policy's
// current version number. Saving does not advance the counter; only a
// restore does.
func (vs *versionService) SaveVersion(ctx context.Context, policyID uuid.UUID, changeNotes string) (*types.PolicyVersion, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, NewForbiddenError("not authenticated")
	}
	var snapshot *types.PolicyVersion
	err := vs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := vs.policyService.GetOwned(ctx, tx, policyID)
		if err != nil {
			return err
		}
		content, err := types.SnapshotContent(p)
		if err != nil {
			return err
		}
		snapshot = &types.PolicyVersion{
			ID:          uuid.New(),
			PolicyID:    p.ID,
			Version:     p.Version,
			Content:     content,
			ChangeNotes: changeNotes,
			ChangedBy:   rd.UserID,
		}
		if _, err := vs.versionRepo.Create(ctx, tx, []*types.PolicyVersion{snapshot}); err != nil {
			return fmt.Errorf("create version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	vs.auditService.Record(ctx, nil, rd.UserID, &policyID, types.AuditVersionSaved, map[string]int{"version": snapshot.Version})
	return snapshot, nil
}

func (vs *versionService) ListVersions(ctx context.Context, policyID uuid.UUID) ([]*types.PolicyVersion, error) {
	if _, err := vs.policyService.GetOwned(ctx, nil, policyID); err != nil {
		return nil, err
	}
	return vs.versionRepo.GetByPolicyIDs(ctx, nil, []uuid.UUID{policyID})
}

func (vs *versionService) GetVersion(ctx context.Context, policyID, versionID uuid.UUID) (*types.PolicyVersion, error) {
	if _, err := vs.policyService.GetOwned(ctx, nil, policyID); err != nil {
		return nil, err
	}
	versions, err := vs.versionRepo.GetByIDs(ctx, nil, []uuid.UUID{versionID})
	if err != nil {
		return nil, fmt.Errorf("fetch version: %w", err)
	}
	// A version of another policy reads the same as a missing one.
	if len(versions) == 0 || versions[0].PolicyID != policyID {
		return nil, NewNotFoundError("version")
	}
	return versions[0], nil
}

// RestoreVersion rolls the live state back to a snapshot. The current state
// is backed up first inside the same transaction, so a restore can itself be
// undone and history is never lost. The version counter advances.
func (vs *versionService) RestoreVersion(ctx context.Context, policyID, versionID uuid.UUID) (*types.Policy, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, NewForbiddenError("not authenticated")
	}
	var restored *types.Policy
	var fromVersion int
	err := vs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := vs.policyService.GetOwned(ctx, tx, policyID)
		if err != nil {
			return err
		}
		versions, err := vs.versionRepo.GetByIDs(ctx, tx, []uuid.UUID{versionID})
		if err != nil {
			return fmt.Errorf("fetch version: %w", err)
		}
		if len(versions) == 0 || versions[0].PolicyID != p.ID {
			return NewNotFoundError("version")
		}
		target := versions[0]
		fromVersion = target.Version

		backupContent, err := types.SnapshotContent(p)
		if err != nil {
			return err
		}
		backup := &types.PolicyVersion{
			ID:          uuid.New(),
			PolicyID:    p.ID,
			Version:     p.Version,
			Content:     backupContent,
			ChangeNotes: fmt.Sprintf("backup before restoring version %d", target.Version),
			ChangedBy:   rd.UserID,
			AutoBackup:  true,
		}
		if _, err := vs.versionRepo.Create(ctx, tx, []*types.PolicyVersion{backup}); err != nil {
			return fmt.Errorf("create backup version: %w", err)
		}

		content, err := target.DecodeContent()
		if err != nil {
			return err
		}
		stepData := make(map[int]json.RawMessage, len(content.StepData))
		for key, raw := range content.StepData {
			n, convErr := strconv.Atoi(key)
			if convErr != nil {
				return fmt.Errorf("corrupt version content: step key %q", key)
			}
			stepData[n] = raw
		}
		completed := make(map[int]bool, len(content.CompletedSteps))
		for _, n := range content.CompletedSteps {
			completed[n] = true
		}
		if err := p.SetSteps(stepData); err != nil {
			return err
		}
		if err := p.SetCompleted(completed); err != nil {
			return err
		}
		if err := policy.Recompute(p); err != nil {
			return err
		}
		p.Version++
		if err := vs.policyRepo.Update(ctx, tx, p); err != nil {
			return fmt.Errorf("update policy: %w", err)
		}
		restored = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	vs.cache.Invalidate(ctx, policyID)
	vs.auditService.Record(ctx, nil, rd.UserID, &policyID, types.AuditVersionRestored, map[string]int{
		"restored_version": fromVersion,
		"new_version":      restored.Version,
	})
	return restored, nil
}
