package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

// Registry is the read-only slice of the module repository the resolver
// needs.
type Registry interface {
	GetByName(ctx context.Context, name string) (domain.Module, error)
	ListActive(ctx context.Context) ([]domain.Module, error)
}

// NotFoundError carries the list of active module names so a miss is
// diagnosable instead of silently serving a default.
type NotFoundError struct {
	Path      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no module matches path %q (%d active)", e.Path, len(e.Available))
}

// Service maps request paths onto active modules. Only the first path
// segment participates in selection; nested paths never match a
// multi-segment module name. That is a deliberate simplicity constraint:
// richer matching belongs in an ordered pattern list layered on top, not in
// this contract.
type Service struct {
	modules Registry
}

func NewService(modules Registry) (*Service, error) {
	if modules == nil {
		return nil, errors.New("module registry is required")
	}
	return &Service{modules: modules}, nil
}

// Resolve returns the module for the path's first segment plus the merged
// variables. Path-derived keys (id, extra) overwrite stored variables of
// the same name.
func (s *Service) Resolve(ctx context.Context, path string) (domain.ResolvedRoute, error) {
	if s == nil || s.modules == nil {
		return domain.ResolvedRoute{}, errors.New("resolver not initialized")
	}
	segments := splitPath(path)
	if len(segments) == 0 {
		return domain.ResolvedRoute{}, s.notFound(ctx, path)
	}

	module, err := s.modules.GetByName(ctx, segments[0])
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.ResolvedRoute{}, s.notFound(ctx, path)
		}
		return domain.ResolvedRoute{}, err
	}
	if !module.Active {
		return domain.ResolvedRoute{}, s.notFound(ctx, path)
	}

	variables := module.Variables.Clone()
	if len(segments) > 1 {
		variables["id"] = segments[1]
	}
	if len(segments) > 2 {
		variables["extra"] = strings.Join(segments[2:], "/")
	}

	return domain.ResolvedRoute{
		ModuleName: module.Name,
		Source:     module.Source,
		Integrity:  module.Integrity,
		Version:    module.Version,
		Variables:  variables,
	}, nil
}

func (s *Service) notFound(ctx context.Context, path string) error {
	modules, err := s.modules.ListActive(ctx)
	if err != nil {
		return err
	}
	available := make([]string, 0, len(modules))
	for _, m := range modules {
		available = append(available, m.Name)
	}
	return &NotFoundError{Path: path, Available: available}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
