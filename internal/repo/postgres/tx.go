package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

// TxManager runs units of work inside a single database transaction.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	if db == nil {
		return nil
	}
	return &TxManager{db: db}
}

func (m *TxManager) InTx(ctx context.Context, fn func(repo.Stores) error) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("tx manager not initialized")
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stores := repo.Stores{
		Modules:  NewModuleStore(tx),
		Releases: NewReleaseStore(tx),
		Audit:    NewAuditAppender(tx, nil),
	}
	if err := fn(stores); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
