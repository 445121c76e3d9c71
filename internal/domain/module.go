package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Module is a registry row: one independently deployable unit of UI content.
// Name is the stable unique key; only active modules are resolvable.
type Module struct {
	Name        string
	Source      string
	Integrity   string
	Version     string
	Variables   Variables
	Description string
	Active      bool
	UpdatedAt   time.Time
}

func (m Module) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("module name is required")
	}
	if strings.TrimSpace(m.Source) == "" {
		return errors.New("module source is required")
	}
	if v := strings.TrimSpace(m.Version); v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			return fmt.Errorf("module version %q: %w", v, err)
		}
	}
	return nil
}
