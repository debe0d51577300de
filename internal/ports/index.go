package ports

import "yololabel/internal/domain"

// ProjectIndex provides cached access to the projects of a workspace.
// Queries are served from the database; SyncFull rebuilds it from disk.
type ProjectIndex interface {
	// Lifecycle
	Open(workspacePath string) error
	Close() error

	// Sync operations
	NeedsFullRebuild() bool
	SyncIncremental() (*domain.SyncStats, error)
	SyncFull() (*domain.SyncStats, error)

	// Queries
	Get(projectPath string) (*domain.IndexedProject, error)
	List() ([]domain.IndexedProject, error)

	// Batch updates
	BeginTx() (IndexTx, error)
}

// IndexTx represents a transaction for atomic index updates
type IndexTx interface {
	UpsertProject(p *domain.IndexedProject) error
	DeleteProject(projectPath string) error

	// Transaction control
	Commit() error
	Rollback() error
}
