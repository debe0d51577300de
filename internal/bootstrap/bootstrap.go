// Package bootstrap assembles the core and its adapters for the front ends.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"yololabel/internal/adapters/filesystem"
	"yololabel/internal/adapters/imagefile"
	"yololabel/internal/adapters/sqlite"
	"yololabel/internal/application"
	"yololabel/internal/config"
	"yololabel/internal/logging"
	"yololabel/internal/ports"
)

// Options select where the workspace lives. Empty fields use internal/config.
type Options struct {
	ConfigPath    string
	WorkspacePath string // overrides and persists the stored workspace root
	Logger        *slog.Logger
	NoIndex       bool
}

// Env is a wired project manager with its collaborators
type Env struct {
	Logger    *slog.Logger
	Repo      *filesystem.Repository
	Workspace *application.WorkspaceManager
	Manager   *application.ProjectManager
	Index     *sqlite.Index // nil when disabled or unavailable

	untrack func()
}

// Open loads the workspace config and starts the project manager. An index
// that cannot be opened is logged and left out; everything works without it.
func Open(o Options) (*Env, error) {
	logger := o.Logger
	if logger == nil {
		logger = logging.New(config.LogLevel(), "text")
	}
	configPath := o.ConfigPath
	if configPath == "" {
		configPath = config.ConfigPath()
	}

	store := filesystem.NewWorkspaceStore(configPath, config.WorkspacePath())
	ws := application.NewWorkspaceManager(store, logger)
	if err := ws.Load(); err != nil {
		return nil, err
	}
	if o.WorkspacePath != "" {
		root := filesystem.ExpandPath(o.WorkspacePath)
		if root != ws.WorkspacePath() {
			if err := ws.SetWorkspacePath(root); err != nil {
				return nil, err
			}
		}
	}

	repo := filesystem.NewRepository()
	pm := application.NewProjectManager(repo, imagefile.NewProcessor(),
		application.WithLogger(logger),
		application.WithWorkspace(ws),
	)
	env := &Env{Logger: logger, Repo: repo, Workspace: ws, Manager: pm}

	if !o.NoIndex {
		env.openIndex()
	}
	return env, nil
}

func (e *Env) openIndex() {
	idx := sqlite.NewIndex(e.Repo, e.Logger)
	if err := idx.Open(e.Workspace.WorkspacePath()); err != nil {
		e.Logger.Warn("project index unavailable", "error", err)
		return
	}

	sync := idx.SyncIncremental
	if idx.NeedsFullRebuild() {
		sync = idx.SyncFull
	}
	stats, err := sync()
	if err != nil {
		e.Logger.Warn("project index sync failed", "error", err)
	} else {
		e.Logger.Debug("project index synced",
			"added", stats.ProjectsAdded,
			"updated", stats.ProjectsUpdated,
			"deleted", stats.ProjectsDeleted,
			"duration", stats.Duration,
		)
	}

	e.Index = idx
	e.untrack = e.Manager.Subscribe(idx.Track)
}

// ProjectIndex returns the index as a port, or nil when there is none
func (e *Env) ProjectIndex() ports.ProjectIndex {
	if e.Index == nil {
		return nil
	}
	return e.Index
}

// OpenRecent loads the most recently used project, if there is one that
// still exists. It reports whether a project was loaded.
func (e *Env) OpenRecent() bool {
	for _, r := range e.Workspace.Config().RecentProjects {
		if !e.Repo.Exists(r.Path) {
			continue
		}
		if _, err := e.Manager.LoadProject(r.Path); err != nil {
			e.Logger.Warn("failed to reopen project", "path", r.Path, "error", err)
			continue
		}
		return true
	}
	return false
}

// Close drains pending label writes and closes the index
func (e *Env) Close() error {
	if e.untrack != nil {
		e.untrack()
	}
	var errs []error
	if err := e.Manager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("pending label writes: %w", err))
	}
	if e.Index != nil {
		if err := e.Index.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
