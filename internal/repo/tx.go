package repo

import "context"

// Stores bundles the repositories that participate in one unit of work.
type Stores struct {
	Modules  ModuleRepository
	Releases ReleaseRepository
	Audit    AuditEventAppender
}

// TxRunner executes fn atomically: either every write made through the
// Stores it passes in commits, or none do.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}
