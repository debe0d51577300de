package application

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

// WorkspaceManager owns the workspace configuration. Every recency change
// is written straight back to the store.
type WorkspaceManager struct {
	store  ports.WorkspaceStore
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	cfg *domain.WorkspaceConfig
}

// NewWorkspaceManager creates a manager; call Load before use
func NewWorkspaceManager(store ports.WorkspaceStore, logger *slog.Logger) *WorkspaceManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkspaceManager{store: store, logger: logger, now: time.Now}
}

// Load reads the configuration. A corrupt file is logged and replaced by
// defaults rather than failing startup.
func (w *WorkspaceManager) Load() error {
	cfg, err := w.store.Load()
	if err != nil {
		if cfg == nil {
			return fmt.Errorf("failed to load workspace config: %w", err)
		}
		w.logger.Warn("workspace config unreadable, using defaults", "path", w.store.Path(), "error", err)
	}

	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
	return nil
}

// Config returns a copy of the current configuration
func (w *WorkspaceManager) Config() domain.WorkspaceConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	cfg := *w.ensure()
	cfg.RecentProjects = append([]domain.RecentProject(nil), cfg.RecentProjects...)
	return cfg
}

// WorkspacePath returns the workspace root
func (w *WorkspaceManager) WorkspacePath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ensure().WorkspacePath
}

// SetWorkspacePath changes the workspace root and persists it
func (w *WorkspaceManager) SetWorkspacePath(path string) error {
	if err := ValidateRequired("workspacePath", path); err != nil {
		return err
	}
	return w.update(func(cfg *domain.WorkspaceConfig) {
		cfg.WorkspacePath = path
	})
}

// AddRecent moves a project to the front of the recency list
func (w *WorkspaceManager) AddRecent(name, path string) error {
	now := w.now()
	return w.update(func(cfg *domain.WorkspaceConfig) {
		cfg.AddRecent(name, path, now)
	})
}

// RemoveRecent drops a project from the recency list
func (w *WorkspaceManager) RemoveRecent(path string) error {
	return w.update(func(cfg *domain.WorkspaceConfig) {
		cfg.RemoveRecent(path)
	})
}

// RenameRecent updates the name shown for a recency entry
func (w *WorkspaceManager) RenameRecent(path, name string) error {
	return w.update(func(cfg *domain.WorkspaceConfig) {
		cfg.RenameRecent(path, name)
	})
}

// UpdateSettings applies fn to the settings and persists them
func (w *WorkspaceManager) UpdateSettings(fn func(*domain.Settings)) error {
	return w.update(func(cfg *domain.WorkspaceConfig) {
		fn(&cfg.Settings)
	})
}

func (w *WorkspaceManager) update(fn func(*domain.WorkspaceConfig)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	cfg := w.ensure()
	fn(cfg)
	if err := w.store.Save(cfg); err != nil {
		return fmt.Errorf("failed to save workspace config: %w", err)
	}
	return nil
}

func (w *WorkspaceManager) ensure() *domain.WorkspaceConfig {
	if w.cfg == nil {
		w.cfg = domain.NewWorkspaceConfig("")
	}
	return w.cfg
}
