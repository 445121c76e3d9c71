package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

type stubRegistry struct {
	modules map[string]domain.Module
}

func (s *stubRegistry) GetByName(ctx context.Context, name string) (domain.Module, error) {
	module, ok := s.modules[name]
	if !ok {
		return domain.Module{}, repo.ErrNotFound
	}
	return module, nil
}

func (s *stubRegistry) ListActive(ctx context.Context) ([]domain.Module, error) {
	var out []domain.Module
	for _, name := range []string{"dashboard", "reports", "settings"} {
		if module, ok := s.modules[name]; ok && module.Active {
			out = append(out, module)
		}
	}
	return out, nil
}

func testRegistry() *stubRegistry {
	return &stubRegistry{modules: map[string]domain.Module{
		"dashboard": {
			Name:      "dashboard",
			Source:    "/mfe/dashboard/index.js",
			Version:   "1.0.0",
			Variables: domain.Variables{"theme": "dark", "id": "stored"},
			Active:    true,
		},
		"reports": {
			Name:    "reports",
			Source:  "/mfe/reports/index.js",
			Version: "2.1.0",
			Active:  true,
		},
		"settings": {
			Name:   "settings",
			Source: "/mfe/settings/index.js",
			Active: false,
		},
	}}
}

func TestResolveBareModulePath(t *testing.T) {
	svc, _ := NewService(testRegistry())
	route, err := svc.Resolve(context.Background(), "/dashboard")
	if err != nil {
		t.Fatalf("Resolve() err=%v", err)
	}
	if route.ModuleName != "dashboard" {
		t.Fatalf("ModuleName=%q, want dashboard", route.ModuleName)
	}
	if route.Source != "/mfe/dashboard/index.js" {
		t.Fatalf("Source=%q", route.Source)
	}
	if got := route.Variables["theme"]; got != "dark" {
		t.Fatalf("Variables[theme]=%v, want dark", got)
	}
	if got := route.Variables["id"]; got != "stored" {
		t.Fatalf("Variables[id]=%v, want stored (no path segment to override)", got)
	}
}

func TestResolvePathSegmentBecomesID(t *testing.T) {
	svc, _ := NewService(testRegistry())
	route, err := svc.Resolve(context.Background(), "/dashboard/42")
	if err != nil {
		t.Fatalf("Resolve() err=%v", err)
	}
	if got := route.Variables["id"]; got != "42" {
		t.Fatalf("Variables[id]=%v, want 42", got)
	}
}

// Path-derived keys win over stored variables of the same name. The stored
// dashboard module carries id="stored"; a path segment must replace it.
func TestResolvePathKeysBeatStoredKeys(t *testing.T) {
	svc, _ := NewService(testRegistry())
	route, err := svc.Resolve(context.Background(), "/dashboard/42/a/b")
	if err != nil {
		t.Fatalf("Resolve() err=%v", err)
	}
	if got := route.Variables["id"]; got != "42" {
		t.Fatalf("Variables[id]=%v, want path-derived 42", got)
	}
	if got := route.Variables["extra"]; got != "a/b" {
		t.Fatalf("Variables[extra]=%v, want a/b", got)
	}
}

func TestResolveDoesNotMutateStoredVariables(t *testing.T) {
	reg := testRegistry()
	svc, _ := NewService(reg)
	if _, err := svc.Resolve(context.Background(), "/dashboard/42"); err != nil {
		t.Fatalf("Resolve() err=%v", err)
	}
	if got := reg.modules["dashboard"].Variables["id"]; got != "stored" {
		t.Fatalf("stored variables mutated: id=%v", got)
	}
}

func TestResolveUnknownListsActiveModules(t *testing.T) {
	svc, _ := NewService(testRegistry())
	_, err := svc.Resolve(context.Background(), "/unknown")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("Resolve() err=%v, want NotFoundError", err)
	}
	if len(nfErr.Available) != 2 {
		t.Fatalf("Available=%v, want the two active modules", nfErr.Available)
	}
	for _, name := range nfErr.Available {
		if name == "settings" {
			t.Fatalf("inactive module listed as available")
		}
	}
}

func TestResolveInactiveModuleIsNotFound(t *testing.T) {
	svc, _ := NewService(testRegistry())
	_, err := svc.Resolve(context.Background(), "/settings")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("Resolve() err=%v, want NotFoundError", err)
	}
}

func TestResolveEmptyPath(t *testing.T) {
	svc, _ := NewService(testRegistry())
	for _, path := range []string{"", "/", "//"} {
		_, err := svc.Resolve(context.Background(), path)
		var nfErr *NotFoundError
		if !errors.As(err, &nfErr) {
			t.Fatalf("Resolve(%q) err=%v, want NotFoundError", path, err)
		}
	}
}
