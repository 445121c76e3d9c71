package repo

import (
	"context"
	"errors"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
)

// ErrNotFound is returned when a module or release does not exist.
var ErrNotFound = errors.New("not found")

// ModuleRepository is the registry store: the single source of truth for
// what can be served right now.
type ModuleRepository interface {
	// Upsert inserts a module or, on name collision, replaces every field
	// except the name. The written row is always active.
	Upsert(ctx context.Context, module domain.Module) error
	GetByName(ctx context.Context, name string) (domain.Module, error)
	// ListActive returns active modules ordered by name.
	ListActive(ctx context.Context) ([]domain.Module, error)
	SetActive(ctx context.Context, name string, active bool) error
}

// ReleaseRepository manages versioned module bundles.
type ReleaseRepository interface {
	Create(ctx context.Context, release domain.Release) error
	GetByID(ctx context.Context, id string) (domain.Release, error)
	// List returns releases newest first.
	List(ctx context.Context) ([]domain.Release, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReleaseStatus) error
	// ArchiveActiveExcept archives every active release other than the
	// given id. Used inside the deploy transaction to keep a single
	// active release.
	ArchiveActiveExcept(ctx context.Context, id string) error
}

// AuditEventAppender ensures append-only audit writes.
type AuditEventAppender interface {
	Append(ctx context.Context, event domain.AuditEvent) (int64, error)
}
