package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "release.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
version: 1.4.0
description: checkout revamp
artifacts:
  - name: dashboard
    source: /mfe/dashboard/index.js
    version: 1.4.0
  - name: settings
    source: /mfe/settings/index.js
`)
	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m.Version != "1.4.0" {
		t.Fatalf("version=%q", m.Version)
	}
	if len(m.Artifacts) != 2 {
		t.Fatalf("artifacts=%d, want 2", len(m.Artifacts))
	}
	if m.Artifacts[1].Name != "settings" {
		t.Fatalf("artifact[1]=%q", m.Artifacts[1].Name)
	}
}

func TestLoadManifestRejections(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantSub string
	}{
		{
			name:    "missing version",
			content: "artifacts:\n  - name: a\n    source: /a\n",
			wantSub: "version is required",
		},
		{
			name:    "bad semver",
			content: "version: not-a-version\nartifacts:\n  - name: a\n    source: /a\n",
			wantSub: "not-a-version",
		},
		{
			name:    "no artifacts",
			content: "version: 1.0.0\n",
			wantSub: "at least one artifact",
		},
		{
			name:    "artifact without source",
			content: "version: 1.0.0\nartifacts:\n  - name: a\n",
			wantSub: "source is required",
		},
		{
			name:    "duplicate artifact",
			content: "version: 1.0.0\nartifacts:\n  - name: a\n    source: /a\n  - name: a\n    source: /b\n",
			wantSub: "duplicate name",
		},
		{
			name:    "unknown field",
			content: "version: 1.0.0\nreleaseNotes: oops\nartifacts:\n  - name: a\n    source: /a\n",
			wantSub: "releaseNotes",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadManifest(writeManifest(t, tc.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := loadManifest(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
