package application

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"yololabel/internal/adapters/filesystem"
	"yololabel/internal/adapters/imagefile"
)

type testEnv struct {
	pm        *ProjectManager
	workspace *WorkspaceManager
	root      string
	sources   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	store := filesystem.NewWorkspaceStore(filepath.Join(root, "config", "workspace.json"), filepath.Join(root, "ws"))
	ws := NewWorkspaceManager(store, nil)
	require.NoError(t, ws.Load())

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	pm := NewProjectManager(
		filesystem.NewRepository(),
		imagefile.NewProcessor(),
		WithWorkspace(ws),
		WithClock(func() time.Time { return clock }),
	)
	t.Cleanup(func() { _ = pm.Close() })

	return &testEnv{pm: pm, workspace: ws, root: root, sources: t.TempDir()}
}

// image writes a solid PNG into the sources directory and returns its path
func (e *testEnv) image(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(e.sources, name)
	require.NoError(t, imaging.Save(imaging.New(w, h, color.NRGBA{G: 255, A: 255}), path))
	return path
}

func (e *testEnv) createProject(t *testing.T, name string, classes ...string) string {
	t.Helper()
	path := filepath.Join(e.root, "ws", name)
	_, err := e.pm.CreateProject(name, "test", path)
	require.NoError(t, err)
	for _, c := range classes {
		_, err := e.pm.AddClass(c)
		require.NoError(t, err)
	}
	return path
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
