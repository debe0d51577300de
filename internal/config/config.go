package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultWorkspacePath = "~/yololabel"
	DefaultLogLevel      = "info"
)

// WorkspacePath returns the workspace root from YOLOLABEL_WORKSPACE,
// falling back to DefaultWorkspacePath. The stored workspace.json value
// takes over once a workspace config exists.
func WorkspacePath() string {
	if env := os.Getenv("YOLOLABEL_WORKSPACE"); env != "" {
		return env
	}
	return DefaultWorkspacePath
}

// ConfigPath returns the workspace.json location from YOLOLABEL_CONFIG,
// falling back to $XDG_CONFIG_HOME/yololabel/workspace.json.
func ConfigPath() string {
	if env := os.Getenv("YOLOLABEL_CONFIG"); env != "" {
		return env
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "yololabel", "workspace.json")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "yololabel", "workspace.json")
	}
	return filepath.Join("~", ".config", "yololabel", "workspace.json")
}

// TrainerCommand returns the training command line from YOLOLABEL_TRAINER.
// Empty means the trainer adapter's default.
func TrainerCommand() string {
	return os.Getenv("YOLOLABEL_TRAINER")
}

// LogLevel returns the log level from YOLOLABEL_LOG_LEVEL
func LogLevel() string {
	if env := os.Getenv("YOLOLABEL_LOG_LEVEL"); env != "" {
		return env
	}
	return DefaultLogLevel
}
