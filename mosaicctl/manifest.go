package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
)

// releaseManifest is the YAML shape accepted by "release create -f".
//
//	version: 1.4.0
//	description: checkout revamp
//	artifacts:
//	  - name: dashboard
//	    source: /mfe/dashboard/index.js
//	    version: 1.4.0
type releaseManifest struct {
	Version     string                   `yaml:"version"`
	Description string                   `yaml:"description"`
	Artifacts   []domain.ReleaseArtifact `yaml:"artifacts"`
}

func loadManifest(path string) (releaseManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return releaseManifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m releaseManifest
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return releaseManifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return releaseManifest{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// validate rejects malformed manifests before they hit the server, so CI
// fails with a line-level message instead of a 400.
func (m releaseManifest) validate() error {
	version := strings.TrimSpace(m.Version)
	if version == "" {
		return fmt.Errorf("version is required")
	}
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("version %q: %w", version, err)
	}
	if len(m.Artifacts) == 0 {
		return fmt.Errorf("at least one artifact is required")
	}
	seen := map[string]bool{}
	for i, artifact := range m.Artifacts {
		name := strings.TrimSpace(artifact.Name)
		if name == "" {
			return fmt.Errorf("artifact %d: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("artifact %d: duplicate name %q", i, name)
		}
		seen[name] = true
		if strings.TrimSpace(artifact.Source) == "" {
			return fmt.Errorf("artifact %q: source is required", name)
		}
		if v := strings.TrimSpace(artifact.Version); v != "" {
			if _, err := semver.NewVersion(v); err != nil {
				return fmt.Errorf("artifact %q: version %q: %w", name, v, err)
			}
		}
	}
	return nil
}
