package health

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	store "github.com/mosaic-labs/mosaic-go/internal/storage/objectstore"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	ModuleHealthy = "healthy"
	ModuleMissing = "missing"
)

// Registry is the read-only slice of the module repository the prober needs.
type Registry interface {
	GetByName(ctx context.Context, name string) (domain.Module, error)
	ListActive(ctx context.Context) ([]domain.Module, error)
}

// ObjectStatter checks artifact presence in the serving location.
type ObjectStatter interface {
	Stat(ctx context.Context, bucket, key string) (store.ObjectInfo, error)
}

// ModuleReport is the per-module outcome of a probe.
type ModuleReport struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Report aggregates module probes: ok iff every checked module is healthy.
type Report struct {
	Status  string         `json:"status"`
	Modules []ModuleReport `json:"modules"`
}

// Prober cross-checks registry entries against actual artifact presence in
// the bucket the runtime serves from.
type Prober struct {
	modules     Registry
	store       ObjectStatter
	serveBucket string
	statTimeout time.Duration
}

func NewProber(modules Registry, store ObjectStatter, serveBucket string, statTimeout time.Duration) (*Prober, error) {
	if modules == nil {
		return nil, errors.New("module registry is required")
	}
	if store == nil {
		return nil, errors.New("object store is required")
	}
	serveBucket = strings.TrimSpace(serveBucket)
	if serveBucket == "" {
		return nil, errors.New("serve bucket is required")
	}
	if statTimeout <= 0 {
		statTimeout = 750 * time.Millisecond
	}
	return &Prober{
		modules:     modules,
		store:       store,
		serveBucket: serveBucket,
		statTimeout: statTimeout,
	}, nil
}

// Check probes one module by name. An unknown name surfaces as the
// repository's not-found error, distinct from an unhealthy module. Named
// checks probe the module even when it is inactive.
func (p *Prober) Check(ctx context.Context, name string) (Report, error) {
	if p == nil || p.modules == nil {
		return Report{}, errors.New("prober not initialized")
	}
	module, err := p.modules.GetByName(ctx, name)
	if err != nil {
		return Report{}, err
	}
	report := p.probe(ctx, module)
	return aggregate([]ModuleReport{report}), nil
}

// CheckAll probes every active module.
func (p *Prober) CheckAll(ctx context.Context) (Report, error) {
	if p == nil || p.modules == nil {
		return Report{}, errors.New("prober not initialized")
	}
	modules, err := p.modules.ListActive(ctx)
	if err != nil {
		return Report{}, err
	}
	reports := make([]ModuleReport, 0, len(modules))
	for _, module := range modules {
		reports = append(reports, p.probe(ctx, module))
	}
	return aggregate(reports), nil
}

func (p *Prober) probe(ctx context.Context, module domain.Module) ModuleReport {
	key, ok := objectKeyFromSource(module.Source)
	if !ok {
		return ModuleReport{Name: module.Name, Status: ModuleMissing, Source: module.Source}
	}
	statCtx, cancel := context.WithTimeout(ctx, p.statTimeout)
	defer cancel()
	if _, err := p.store.Stat(statCtx, p.serveBucket, key); err != nil {
		return ModuleReport{Name: module.Name, Status: ModuleMissing, Source: module.Source}
	}
	return ModuleReport{Name: module.Name, Status: ModuleHealthy, Version: module.Version}
}

func aggregate(reports []ModuleReport) Report {
	status := StatusOK
	for _, r := range reports {
		if r.Status != ModuleHealthy {
			status = StatusDegraded
			break
		}
	}
	return Report{Status: status, Modules: reports}
}

// objectKeyFromSource maps a module source to its object key in the serve
// bucket. Sources are either rooted paths (/mfe/dashboard/index.js) or full
// URLs whose path holds the key.
func objectKeyFromSource(source string) (string, bool) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", false
	}
	if strings.Contains(source, "://") {
		u, err := url.Parse(source)
		if err != nil {
			return "", false
		}
		source = u.Path
	}
	key := strings.TrimPrefix(source, "/")
	if key == "" {
		return "", false
	}
	return key, true
}
