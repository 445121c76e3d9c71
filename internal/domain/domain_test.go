package domain

import "testing"

func TestModuleValidate(t *testing.T) {
	module := Module{Name: "dashboard", Source: "/mfe/dashboard/index.js", Version: "1.0.0"}
	if err := module.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	cases := []struct {
		name   string
		module Module
	}{
		{"missing name", Module{Source: "/x"}},
		{"missing source", Module{Name: "dashboard"}},
		{"bad version", Module{Name: "dashboard", Source: "/x", Version: "latest"}},
	}
	for _, tc := range cases {
		if err := tc.module.Validate(); err == nil {
			t.Fatalf("%s: Validate() accepted invalid module", tc.name)
		}
	}
}

func TestModuleValidateAllowsEmptyVersion(t *testing.T) {
	module := Module{Name: "dashboard", Source: "/x"}
	if err := module.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestReleaseValidate(t *testing.T) {
	release := Release{
		ID:      "rel-1",
		Version: "1.0.0",
		Artifacts: []ReleaseArtifact{
			{Name: "dashboard", Source: "/mfe/dashboard/index.js"},
		},
		Status: ReleaseDraft,
	}
	if err := release.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	release.Artifacts = nil
	if err := release.Validate(); err == nil {
		t.Fatalf("Validate() accepted release without artifacts")
	}
}

func TestReleaseStatusValid(t *testing.T) {
	for _, status := range []ReleaseStatus{ReleaseDraft, ReleaseActive, ReleaseArchived} {
		if !status.Valid() {
			t.Fatalf("status %s reported invalid", status)
		}
	}
	if ReleaseStatus("deployed").Valid() {
		t.Fatalf("unknown status reported valid")
	}
}

func TestVariablesClone(t *testing.T) {
	original := Variables{"theme": "dark"}
	clone := original.Clone()
	clone["theme"] = "light"
	if original["theme"] != "dark" {
		t.Fatalf("Clone() shares storage with original")
	}
}
