package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

// DB is satisfied by both *sql.DB and *sql.Tx so stores can run inside the
// deploy transaction.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func encodeVariables(vars domain.Variables) ([]byte, error) {
	if vars == nil {
		vars = domain.Variables{}
	}
	return json.Marshal(vars)
}

func decodeVariables(raw []byte) (domain.Variables, error) {
	if len(raw) == 0 {
		return domain.Variables{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return domain.Variables(out), nil
}

func handleNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
