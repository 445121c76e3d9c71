package release

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

// AuditContext captures request identity details for audit logging.
type AuditContext struct {
	Actor     string
	RequestID string
	Path      string
}

// Service manages the release lifecycle up to the point of deployment.
type Service struct {
	releases repo.ReleaseRepository
	audit    repo.AuditEventAppender
	now      func() time.Time
}

func NewService(releases repo.ReleaseRepository, audit repo.AuditEventAppender) (*Service, error) {
	if releases == nil {
		return nil, errors.New("release repository is required")
	}
	return &Service{releases: releases, audit: audit, now: time.Now}, nil
}

// Create registers a draft release with a generated id. Version uniqueness
// is intended but not enforced; operators pick versions through CI.
func (s *Service) Create(ctx context.Context, version, description string, artifacts []domain.ReleaseArtifact, auditCtx AuditContext) (domain.Release, error) {
	if s == nil || s.releases == nil {
		return domain.Release{}, errors.New("release service not initialized")
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return domain.Release{}, domain.Validationf("release version is required")
	}
	if len(artifacts) == 0 {
		return domain.Release{}, domain.Validationf("release artifacts are required")
	}

	now := s.now().UTC()
	rel := domain.Release{
		ID:          uuid.NewString(),
		Version:     version,
		Description: strings.TrimSpace(description),
		Artifacts:   artifacts,
		Status:      domain.ReleaseDraft,
		CreatedAt:   now,
	}
	if err := rel.Validate(); err != nil {
		return domain.Release{}, domain.Validationf("invalid release: %v", err)
	}
	if err := s.releases.Create(ctx, rel); err != nil {
		return domain.Release{}, err
	}

	if s.audit != nil {
		_, _ = s.audit.Append(ctx, domain.AuditEvent{
			OccurredAt:   now,
			Actor:        auditCtx.Actor,
			Action:       "release.create",
			ResourceType: "release",
			ResourceID:   rel.ID,
			RequestID:    auditCtx.RequestID,
			Payload: domain.Variables{
				"version":      rel.Version,
				"artifacts":    len(rel.Artifacts),
				"request_path": auditCtx.Path,
			},
		})
	}
	return rel, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Release, error) {
	if s == nil || s.releases == nil {
		return domain.Release{}, errors.New("release service not initialized")
	}
	return s.releases.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Release, error) {
	if s == nil || s.releases == nil {
		return nil, errors.New("release service not initialized")
	}
	return s.releases.List(ctx)
}
