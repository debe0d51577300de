package ports

import "os/exec"

// EditorOpener opens a label file in a text editor
type EditorOpener interface {
	OpenFile(path string) error

	// Command builds the editor process without starting it, so a TUI can
	// hand the terminal over with tea.ExecProcess. A missing label file is
	// created empty first.
	Command(path string) (*exec.Cmd, error)
}

// ImageViewer opens an image with the desktop's default viewer
type ImageViewer interface {
	Open(path string) error
}
