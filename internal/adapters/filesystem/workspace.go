package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"yololabel/internal/domain"
)

// WorkspaceStore implements ports.WorkspaceStore as a JSON file
type WorkspaceStore struct {
	path        string
	defaultRoot string
}

// NewWorkspaceStore creates a store backed by the file at path. When the
// file does not exist Load returns a config rooted at defaultRoot.
func NewWorkspaceStore(path, defaultRoot string) *WorkspaceStore {
	return &WorkspaceStore{
		path:        ExpandPath(path),
		defaultRoot: ExpandPath(defaultRoot),
	}
}

// Path returns the config file location
func (s *WorkspaceStore) Path() string {
	return s.path
}

// Load reads the workspace config, returning defaults when it is missing.
// Unknown fields are ignored and missing settings keep their defaults.
func (s *WorkspaceStore) Load() (*domain.WorkspaceConfig, error) {
	cfg := domain.NewWorkspaceConfig(s.defaultRoot)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, &domain.IOError{Op: "read", Path: s.path, Err: err}
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return domain.NewWorkspaceConfig(s.defaultRoot), fmt.Errorf("%w: %s: %v", domain.ErrCorrupt, s.path, err)
	}
	if cfg.WorkspacePath == "" {
		cfg.WorkspacePath = s.defaultRoot
	}
	cfg.WorkspacePath = ExpandPath(cfg.WorkspacePath)
	if len(cfg.RecentProjects) > domain.MaxRecentProjects {
		cfg.RecentProjects = cfg.RecentProjects[:domain.MaxRecentProjects]
	}
	return cfg, nil
}

// Save writes the workspace config
func (s *WorkspaceStore) Save(cfg *domain.WorkspaceConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &domain.IOError{Op: "create", Path: filepath.Dir(s.path), Err: err}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workspace: %w", err)
	}
	return writeFileAtomic(s.path, data)
}
