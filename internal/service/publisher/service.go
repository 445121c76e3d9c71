package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
	store "github.com/mosaic-labs/mosaic-go/internal/storage/objectstore"
)

const moduleContentType = "application/javascript"

// AuditContext captures request identity details for audit logging.
type AuditContext struct {
	Actor     string
	RequestID string
	Path      string
}

// Input describes one module publish. Name is untrusted and is slugified
// before use as a storage key. Version defaults to 0.0.0 when omitted.
type Input struct {
	Name        string
	Code        string
	Route       string
	Version     string
	Description string
	Variables   domain.Variables
}

// Result reports where the artifact landed and how to reach it.
type Result struct {
	Module     domain.Module
	Route      string
	ModulePath string
	PreviewURL string
}

// Service writes module artifacts to every serving location and registers
// them so the resolver can find them. Re-publishing a name overwrites the
// prior content and registry row; it never creates a second module.
type Service struct {
	modules       repo.ModuleRepository
	store         store.Store
	serveBucket   string
	persistBucket string
	audit         repo.AuditEventAppender
	now           func() time.Time
}

func NewService(modules repo.ModuleRepository, objects store.Store, serveBucket, persistBucket string, audit repo.AuditEventAppender) (*Service, error) {
	if modules == nil {
		return nil, errors.New("module repository is required")
	}
	if objects == nil {
		return nil, errors.New("object store is required")
	}
	serveBucket = strings.TrimSpace(serveBucket)
	if serveBucket == "" {
		return nil, errors.New("serve bucket is required")
	}
	persistBucket = strings.TrimSpace(persistBucket)
	if persistBucket == "" {
		return nil, errors.New("persist bucket is required")
	}
	return &Service{
		modules:       modules,
		store:         objects,
		serveBucket:   serveBucket,
		persistBucket: persistBucket,
		audit:         audit,
		now:           time.Now,
	}, nil
}

func (s *Service) Publish(ctx context.Context, input Input, auditCtx AuditContext) (Result, error) {
	if s == nil || s.modules == nil || s.store == nil {
		return Result{}, errors.New("publisher not initialized")
	}
	if strings.TrimSpace(input.Name) == "" {
		return Result{}, domain.Validationf("module name is required")
	}
	if input.Code == "" {
		return Result{}, domain.Validationf("module code is required")
	}
	slug := Slugify(input.Name)
	if slug == "" {
		return Result{}, domain.Validationf("module name %q has no usable characters", input.Name)
	}
	version := strings.TrimSpace(input.Version)
	if version == "" {
		version = "0.0.0"
	} else if _, err := semver.NewVersion(version); err != nil {
		return Result{}, domain.Validationf("module version %q: %v", version, err)
	}

	content := []byte(input.Code)
	key := "mfe/" + slug + "/index.js"
	integrity := integritySHA256(content)

	// Both locations must observe the same bytes: the serve bucket feeds
	// the runtime, the persist bucket survives a rebuild.
	for _, bucket := range []string{s.serveBucket, s.persistBucket} {
		if err := s.store.Put(ctx, bucket, key, bytes.NewReader(content), int64(len(content)), moduleContentType); err != nil {
			return Result{}, fmt.Errorf("write artifact to %s: %w", bucket, err)
		}
	}

	now := s.now().UTC()
	module := domain.Module{
		Name:        slug,
		Source:      "/" + key,
		Integrity:   integrity,
		Version:     version,
		Variables:   input.Variables,
		Description: strings.TrimSpace(input.Description),
		Active:      true,
		UpdatedAt:   now,
	}
	if err := s.modules.Upsert(ctx, module); err != nil {
		return Result{}, err
	}

	if s.audit != nil {
		_, _ = s.audit.Append(ctx, domain.AuditEvent{
			OccurredAt:   now,
			Actor:        auditCtx.Actor,
			Action:       "module.publish",
			ResourceType: "module",
			ResourceID:   slug,
			RequestID:    auditCtx.RequestID,
			Payload: domain.Variables{
				"version":      version,
				"integrity":    integrity,
				"size_bytes":   len(content),
				"request_path": auditCtx.Path,
			},
		})
	}

	route := strings.TrimSpace(input.Route)
	if route == "" {
		route = "/" + slug
	}
	return Result{
		Module:     module,
		Route:      route,
		ModulePath: "/" + key,
		PreviewURL: route,
	}, nil
}
