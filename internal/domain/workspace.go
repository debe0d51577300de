package domain

import (
	"slices"
	"time"
)

// MaxRecentProjects bounds the recency list
const MaxRecentProjects = 10

// RecentProject is one entry of the recency list
type RecentProject struct {
	Name       string    `json:"project_name"`
	Path       string    `json:"project_path"`
	LastOpened time.Time `json:"last_opened"`
}

// Settings are user preferences persisted with the workspace
type Settings struct {
	DefaultImageFormat string  `json:"default_image_format"`
	AnnotationOpacity  float64 `json:"annotation_opacity"`
	ShowClassNames     bool    `json:"show_class_names"`
	Theme              string  `json:"theme"`
}

// DefaultSettings returns the settings used when none are stored
func DefaultSettings() Settings {
	return Settings{
		DefaultImageFormat: "png",
		AnnotationOpacity:  0.3,
		ShowClassNames:     true,
		Theme:              "dark",
	}
}

// WorkspaceConfig is the workspace root plus recency list and settings
type WorkspaceConfig struct {
	WorkspacePath  string          `json:"workspace_path"`
	LastOpened     time.Time       `json:"last_opened"`
	RecentProjects []RecentProject `json:"recent_projects"`
	Settings       Settings        `json:"settings"`
}

// NewWorkspaceConfig returns a config for workspacePath with default settings
func NewWorkspaceConfig(workspacePath string) *WorkspaceConfig {
	return &WorkspaceConfig{
		WorkspacePath: workspacePath,
		Settings:      DefaultSettings(),
	}
}

// AddRecent records a project as most recently opened. An existing entry
// with the same path is removed first; the list keeps at most
// MaxRecentProjects entries, most recent first.
func (w *WorkspaceConfig) AddRecent(name, path string, now time.Time) {
	w.RemoveRecent(path)
	entry := RecentProject{Name: name, Path: path, LastOpened: now}
	w.RecentProjects = slices.Insert(w.RecentProjects, 0, entry)
	if len(w.RecentProjects) > MaxRecentProjects {
		w.RecentProjects = w.RecentProjects[:MaxRecentProjects]
	}
	w.LastOpened = now
}

// RemoveRecent drops the entry for path and reports whether one existed
func (w *WorkspaceConfig) RemoveRecent(path string) bool {
	before := len(w.RecentProjects)
	w.RecentProjects = slices.DeleteFunc(w.RecentProjects, func(r RecentProject) bool {
		return r.Path == path
	})
	return len(w.RecentProjects) != before
}

// RenameRecent updates the display name of a recency entry in place
func (w *WorkspaceConfig) RenameRecent(path, name string) bool {
	for i := range w.RecentProjects {
		if w.RecentProjects[i].Path == path {
			w.RecentProjects[i].Name = name
			return true
		}
	}
	return false
}
