package publisher

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
	store "github.com/mosaic-labs/mosaic-go/internal/storage/objectstore"
)

type stubModules struct {
	upserts []domain.Module
	byName  map[string]domain.Module
}

func newStubModules() *stubModules {
	return &stubModules{byName: map[string]domain.Module{}}
}

func (s *stubModules) Upsert(ctx context.Context, module domain.Module) error {
	s.upserts = append(s.upserts, module)
	s.byName[module.Name] = module
	return nil
}

func (s *stubModules) GetByName(ctx context.Context, name string) (domain.Module, error) {
	module, ok := s.byName[name]
	if !ok {
		return domain.Module{}, repo.ErrNotFound
	}
	return module, nil
}

func (s *stubModules) ListActive(ctx context.Context) ([]domain.Module, error) { return nil, nil }

func (s *stubModules) SetActive(ctx context.Context, name string, active bool) error { return nil }

type putCall struct {
	bucket  string
	key     string
	content string
}

type stubStore struct {
	puts []putCall
}

func (s *stubStore) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.puts = append(s.puts, putCall{bucket: bucket, key: key, content: string(content)})
	return nil
}

func (s *stubStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, store.ObjectInfo, error) {
	return nil, store.ObjectInfo{}, errors.New("not implemented")
}

func (s *stubStore) Stat(ctx context.Context, bucket, key string) (store.ObjectInfo, error) {
	return store.ObjectInfo{}, errors.New("not implemented")
}

func (s *stubStore) Delete(ctx context.Context, bucket, key string) error {
	return errors.New("not implemented")
}

type stubAudit struct {
	events []domain.AuditEvent
}

func (s *stubAudit) Append(ctx context.Context, event domain.AuditEvent) (int64, error) {
	s.events = append(s.events, event)
	return int64(len(s.events)), nil
}

func newTestService(t *testing.T, modules *stubModules, objects *stubStore, audit *stubAudit) *Service {
	t.Helper()
	var appender repo.AuditEventAppender
	if audit != nil {
		appender = audit
	}
	svc, err := NewService(modules, objects, "mfe-serve", "mfe-persist", appender)
	if err != nil {
		t.Fatalf("NewService() err=%v", err)
	}
	return svc
}

func TestPublishWritesBothLocations(t *testing.T) {
	modules := newStubModules()
	objects := &stubStore{}
	audit := &stubAudit{}
	svc := newTestService(t, modules, objects, audit)

	result, err := svc.Publish(context.Background(), Input{
		Name:    "Dashboard",
		Code:    "export default {}",
		Route:   "/dashboard",
		Version: "1.0.0",
	}, AuditContext{Actor: "dev"})
	if err != nil {
		t.Fatalf("Publish() err=%v", err)
	}

	if len(objects.puts) != 2 {
		t.Fatalf("puts=%d, want 2 (serve and persist)", len(objects.puts))
	}
	if objects.puts[0].content != objects.puts[1].content {
		t.Fatalf("locations observed different bytes")
	}
	buckets := map[string]bool{}
	for _, put := range objects.puts {
		buckets[put.bucket] = true
		if put.key != "mfe/dashboard/index.js" {
			t.Fatalf("key=%q, want mfe/dashboard/index.js", put.key)
		}
	}
	if !buckets["mfe-serve"] || !buckets["mfe-persist"] {
		t.Fatalf("buckets=%v, want serve and persist", buckets)
	}

	if result.ModulePath != "/mfe/dashboard/index.js" {
		t.Fatalf("ModulePath=%q", result.ModulePath)
	}
	if result.Route != "/dashboard" {
		t.Fatalf("Route=%q", result.Route)
	}
	if result.Module.Integrity == "" {
		t.Fatalf("integrity not computed")
	}

	if len(modules.upserts) != 1 {
		t.Fatalf("upserts=%d, want 1", len(modules.upserts))
	}
	module := modules.upserts[0]
	if module.Name != "dashboard" {
		t.Fatalf("module name=%q, want slugified dashboard", module.Name)
	}
	if !module.Active {
		t.Fatalf("published module must be active")
	}
	if module.Version != "1.0.0" {
		t.Fatalf("version=%q", module.Version)
	}

	if len(audit.events) != 1 || audit.events[0].Action != "module.publish" {
		t.Fatalf("audit events=%+v", audit.events)
	}
}

func TestRepublishOverwritesSameEntry(t *testing.T) {
	modules := newStubModules()
	svc := newTestService(t, modules, &stubStore{}, nil)

	for _, version := range []string{"1.0.0", "1.0.1"} {
		if _, err := svc.Publish(context.Background(), Input{
			Name:    "dashboard",
			Code:    "export default { v: '" + version + "' }",
			Version: version,
		}, AuditContext{}); err != nil {
			t.Fatalf("Publish(%s) err=%v", version, err)
		}
	}

	if len(modules.byName) != 1 {
		t.Fatalf("registry entries=%d, want 1", len(modules.byName))
	}
	if got := modules.byName["dashboard"].Version; got != "1.0.1" {
		t.Fatalf("version=%q, want 1.0.1", got)
	}
}

func TestPublishValidation(t *testing.T) {
	svc := newTestService(t, newStubModules(), &stubStore{}, nil)

	cases := []struct {
		name  string
		input Input
	}{
		{"missing name", Input{Code: "x"}},
		{"missing code", Input{Name: "dashboard"}},
		{"unusable name", Input{Name: "///", Code: "x"}},
		{"bad version", Input{Name: "dashboard", Code: "x", Version: "not-semver"}},
	}
	for _, tc := range cases {
		_, err := svc.Publish(context.Background(), tc.input, AuditContext{})
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: err=%v, want ValidationError", tc.name, err)
		}
	}
}

func TestPublishDefaultsVersionAndRoute(t *testing.T) {
	modules := newStubModules()
	svc := newTestService(t, modules, &stubStore{}, nil)

	result, err := svc.Publish(context.Background(), Input{Name: "My Widget", Code: "x"}, AuditContext{})
	if err != nil {
		t.Fatalf("Publish() err=%v", err)
	}
	if result.Module.Version != "0.0.0" {
		t.Fatalf("version=%q, want 0.0.0", result.Module.Version)
	}
	if result.Route != "/my-widget" {
		t.Fatalf("route=%q, want /my-widget", result.Route)
	}
}
