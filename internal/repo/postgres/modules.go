package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

// ModuleStore persists the module registry.
type ModuleStore struct {
	db DB
}

func NewModuleStore(db DB) *ModuleStore {
	if db == nil {
		return nil
	}
	return &ModuleStore{db: db}
}

func (s *ModuleStore) Upsert(ctx context.Context, module domain.Module) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("module store not initialized")
	}
	if err := module.Validate(); err != nil {
		return err
	}
	variablesJSON, err := encodeVariables(module.Variables)
	if err != nil {
		return fmt.Errorf("encode variables: %w", err)
	}
	updatedAt := normalizeTime(module.UpdatedAt)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO modules (
			name,
			source,
			integrity,
			version,
			variables,
			description,
			active,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,TRUE,$7)
		ON CONFLICT (name) DO UPDATE SET
			source = EXCLUDED.source,
			integrity = EXCLUDED.integrity,
			version = EXCLUDED.version,
			variables = EXCLUDED.variables,
			description = EXCLUDED.description,
			active = TRUE,
			updated_at = EXCLUDED.updated_at`,
		strings.TrimSpace(module.Name),
		strings.TrimSpace(module.Source),
		strings.TrimSpace(module.Integrity),
		strings.TrimSpace(module.Version),
		variablesJSON,
		strings.TrimSpace(module.Description),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert module: %w", err)
	}
	return nil
}

func (s *ModuleStore) GetByName(ctx context.Context, name string) (domain.Module, error) {
	if s == nil || s.db == nil {
		return domain.Module{}, fmt.Errorf("module store not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Module{}, fmt.Errorf("module name is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT name, source, integrity, version, variables, description, active, updated_at
		 FROM modules
		 WHERE name = $1`,
		name,
	)
	return scanModule(row)
}

func (s *ModuleStore) ListActive(ctx context.Context) ([]domain.Module, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("module store not initialized")
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT name, source, integrity, version, variables, description, active, updated_at
		 FROM modules
		 WHERE active
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var modules []domain.Module
	for rows.Next() {
		module, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

func (s *ModuleStore) SetActive(ctx context.Context, name string, active bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("module store not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("module name is required")
	}
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE modules SET active = $2, updated_at = NOW() WHERE name = $1`,
		name,
		active,
	)
	if err != nil {
		return fmt.Errorf("set module active: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set module active: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModule(row rowScanner) (domain.Module, error) {
	var (
		module        domain.Module
		variablesJSON []byte
		integrity     sql.NullString
		version       sql.NullString
		description   sql.NullString
	)
	if err := row.Scan(&module.Name, &module.Source, &integrity, &version, &variablesJSON, &description, &module.Active, &module.UpdatedAt); err != nil {
		return domain.Module{}, handleNotFound(err)
	}
	module.Integrity = integrity.String
	module.Version = version.String
	module.Description = description.String
	variables, err := decodeVariables(variablesJSON)
	if err != nil {
		return domain.Module{}, fmt.Errorf("decode variables: %w", err)
	}
	module.Variables = variables
	return module, nil
}
