package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

// ReleaseStore persists versioned module bundles.
type ReleaseStore struct {
	db DB
}

func NewReleaseStore(db DB) *ReleaseStore {
	if db == nil {
		return nil
	}
	return &ReleaseStore{db: db}
}

func (s *ReleaseStore) Create(ctx context.Context, release domain.Release) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("release store not initialized")
	}
	if err := release.Validate(); err != nil {
		return err
	}
	artifactsJSON, err := json.Marshal(release.Artifacts)
	if err != nil {
		return fmt.Errorf("encode artifacts: %w", err)
	}
	createdAt := normalizeTime(release.CreatedAt)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO releases (
			release_id,
			version,
			description,
			artifacts,
			status,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6)`,
		strings.TrimSpace(release.ID),
		strings.TrimSpace(release.Version),
		strings.TrimSpace(release.Description),
		artifactsJSON,
		string(release.Status),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert release: %w", err)
	}
	return nil
}

func (s *ReleaseStore) GetByID(ctx context.Context, id string) (domain.Release, error) {
	if s == nil || s.db == nil {
		return domain.Release{}, fmt.Errorf("release store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Release{}, fmt.Errorf("release id is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT release_id, version, description, artifacts, status, created_at
		 FROM releases
		 WHERE release_id = $1`,
		id,
	)
	return scanRelease(row)
}

func (s *ReleaseStore) List(ctx context.Context) ([]domain.Release, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("release store not initialized")
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT release_id, version, description, artifacts, status, created_at
		 FROM releases
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var releases []domain.Release
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	return releases, nil
}

func (s *ReleaseStore) UpdateStatus(ctx context.Context, id string, status domain.ReleaseStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("release store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("release id is required")
	}
	if !status.Valid() {
		return fmt.Errorf("release status %q is invalid", status)
	}
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE releases SET status = $2 WHERE release_id = $1`,
		id,
		string(status),
	)
	if err != nil {
		return fmt.Errorf("update release status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update release status: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *ReleaseStore) ArchiveActiveExcept(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("release store not initialized")
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE releases SET status = $1 WHERE status = $2 AND release_id <> $3`,
		string(domain.ReleaseArchived),
		string(domain.ReleaseActive),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("archive releases: %w", err)
	}
	return nil
}

func scanRelease(row rowScanner) (domain.Release, error) {
	var (
		release       domain.Release
		description   sql.NullString
		artifactsJSON []byte
		status        string
	)
	if err := row.Scan(&release.ID, &release.Version, &description, &artifactsJSON, &status, &release.CreatedAt); err != nil {
		return domain.Release{}, handleNotFound(err)
	}
	release.Description = description.String
	release.Status = domain.ReleaseStatus(status)
	if len(artifactsJSON) > 0 {
		if err := json.Unmarshal(artifactsJSON, &release.Artifacts); err != nil {
			return domain.Release{}, fmt.Errorf("decode artifacts: %w", err)
		}
	}
	return release, nil
}
