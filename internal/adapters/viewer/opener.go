package viewer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Opener implements ports.ImageViewer with the desktop's default handler
type Opener struct {
	goos string
}

// NewOpener creates a viewer for the running operating system
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS}
}

// Open shows an image in the default viewer without waiting for it to close
func (o *Opener) Open(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start viewer: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Command builds the platform command that opens path
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("image not found: %s", path)
	}

	switch o.goos {
	case "darwin":
		return exec.Command("open", abs), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", abs), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", abs), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", o.goos)
	}
}
