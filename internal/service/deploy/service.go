package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

// ErrReleaseArchived is returned when a deploy targets a release that has
// already been superseded. Archived is a terminal state.
var ErrReleaseArchived = errors.New("release is archived")

// PartialApplyError reports a deploy that failed before every module of the
// release could be applied. The transaction is rolled back, so neither the
// registry nor the release status carry any of the attempted changes.
type PartialApplyError struct {
	ReleaseID string
	Failed    []string
	Err       error
}

func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("release %s: apply failed for modules %s: %v", e.ReleaseID, strings.Join(e.Failed, ", "), e.Err)
}

func (e *PartialApplyError) Unwrap() error { return e.Err }

// AuditContext captures request identity details for audit logging.
type AuditContext struct {
	Actor     string
	RequestID string
	Path      string
}

// Service applies releases to the module registry. A release is a unit of
// rollout: all of its modules activate together or none do. Concurrent
// deploys of releases with overlapping module names race at the row level;
// callers should serialize those.
type Service struct {
	tx  repo.TxRunner
	now func() time.Time
}

func NewService(tx repo.TxRunner) (*Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner is required")
	}
	return &Service{tx: tx, now: time.Now}, nil
}

// Deploy activates the release: every artifact is upserted as an active
// module, any previously active release is archived, and the release status
// flips to active, all in one transaction. Deploying the currently active
// release is a no-op success.
func (s *Service) Deploy(ctx context.Context, releaseID string, auditCtx AuditContext) (domain.Release, error) {
	if s == nil || s.tx == nil {
		return domain.Release{}, errors.New("deploy service not initialized")
	}
	releaseID = strings.TrimSpace(releaseID)
	if releaseID == "" {
		return domain.Release{}, domain.Validationf("release id is required")
	}

	var applied domain.Release
	err := s.tx.InTx(ctx, func(stores repo.Stores) error {
		release, err := stores.Releases.GetByID(ctx, releaseID)
		if err != nil {
			return err
		}
		if release.Status == domain.ReleaseActive {
			applied = release
			return nil
		}
		if release.Status == domain.ReleaseArchived {
			return ErrReleaseArchived
		}

		now := s.now().UTC()
		for _, artifact := range release.Artifacts {
			module := domain.Module{
				Name:      artifact.Name,
				Source:    artifact.Source,
				Version:   artifact.Version,
				Integrity: artifact.Integrity,
				Active:    true,
				UpdatedAt: now,
			}
			if err := stores.Modules.Upsert(ctx, module); err != nil {
				return &PartialApplyError{
					ReleaseID: release.ID,
					Failed:    []string{artifact.Name},
					Err:       err,
				}
			}
		}

		if err := stores.Releases.ArchiveActiveExcept(ctx, release.ID); err != nil {
			return fmt.Errorf("archive previous release: %w", err)
		}
		if err := stores.Releases.UpdateStatus(ctx, release.ID, domain.ReleaseActive); err != nil {
			return fmt.Errorf("activate release: %w", err)
		}

		if stores.Audit != nil {
			moduleNames := make([]string, 0, len(release.Artifacts))
			for _, artifact := range release.Artifacts {
				moduleNames = append(moduleNames, artifact.Name)
			}
			_, err := stores.Audit.Append(ctx, domain.AuditEvent{
				OccurredAt:   now,
				Actor:        auditCtx.Actor,
				Action:       "release.deploy",
				ResourceType: "release",
				ResourceID:   release.ID,
				RequestID:    auditCtx.RequestID,
				Payload: domain.Variables{
					"version":      release.Version,
					"modules":      moduleNames,
					"request_path": auditCtx.Path,
				},
			})
			if err != nil {
				return fmt.Errorf("audit: %w", err)
			}
		}

		release.Status = domain.ReleaseActive
		applied = release
		return nil
	})
	if err != nil {
		return domain.Release{}, err
	}
	return applied, nil
}
