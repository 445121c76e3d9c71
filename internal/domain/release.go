package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

type ReleaseStatus string

const (
	ReleaseDraft    ReleaseStatus = "draft"
	ReleaseActive   ReleaseStatus = "active"
	ReleaseArchived ReleaseStatus = "archived"
)

func (s ReleaseStatus) Valid() bool {
	switch s {
	case ReleaseDraft, ReleaseActive, ReleaseArchived:
		return true
	}
	return false
}

// ReleaseArtifact is one module definition carried by a release.
type ReleaseArtifact struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Version   string `json:"version,omitempty"`
	Integrity string `json:"integrity,omitempty"`
}

func (a ReleaseArtifact) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("artifact name is required")
	}
	if strings.TrimSpace(a.Source) == "" {
		return errors.New("artifact source is required")
	}
	return nil
}

// Release is a versioned bundle of module definitions applied to the
// registry as one unit. Exactly one release is active at a time; activation
// archives the previously active release.
type Release struct {
	ID          string
	Version     string
	Description string
	Artifacts   []ReleaseArtifact
	Status      ReleaseStatus
	CreatedAt   time.Time
}

func (r Release) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("release id is required")
	}
	version := strings.TrimSpace(r.Version)
	if version == "" {
		return errors.New("release version is required")
	}
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("release version %q: %w", version, err)
	}
	if len(r.Artifacts) == 0 {
		return errors.New("release artifacts are required")
	}
	for i, artifact := range r.Artifacts {
		if err := artifact.Validate(); err != nil {
			return fmt.Errorf("artifact %d: %w", i, err)
		}
	}
	if !r.Status.Valid() {
		return fmt.Errorf("release status %q is invalid", r.Status)
	}
	return nil
}
