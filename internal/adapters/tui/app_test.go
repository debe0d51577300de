package tui

import (
	"path/filepath"
	"testing"

	"yololabel/internal/adapters/filesystem"
	"yololabel/internal/adapters/imagefile"
	"yololabel/internal/adapters/tui/views"
	"yololabel/internal/application"
)

func setupApp(t *testing.T) (*App, *application.ProjectManager) {
	t.Helper()
	root := t.TempDir()
	store := filesystem.NewWorkspaceStore(filepath.Join(root, "workspace.json"), filepath.Join(root, "ws"))
	wm := application.NewWorkspaceManager(store, nil)
	if err := wm.Load(); err != nil {
		t.Fatal(err)
	}
	repo := filesystem.NewRepository()
	pm := application.NewProjectManager(repo, imagefile.NewProcessor(), application.WithWorkspace(wm))
	t.Cleanup(func() { _ = pm.Close() })

	app := NewApp(Deps{Manager: pm, Repo: repo})
	t.Cleanup(app.Close)
	return app, pm
}

func TestApp_ChangeNotification(t *testing.T) {
	app, pm := setupApp(t)

	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := pm.AddClass("car"); err != nil {
		t.Fatal(err)
	}

	// Several changes coalesce into one pending notification
	if _, ok := app.waitForChange().(views.ProjectChangedMsg); !ok {
		t.Fatal("expected ProjectChangedMsg")
	}
	select {
	case <-app.changes:
		t.Error("expected changes to coalesce")
	default:
	}
}

func TestApp_Unsubscribe(t *testing.T) {
	app, pm := setupApp(t)
	app.Close()

	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}
	select {
	case <-app.changes:
		t.Error("expected no notification after Close")
	default:
	}
}

func TestApp_ViewSwitching(t *testing.T) {
	app, _ := setupApp(t)
	if app.state != ViewProjects {
		t.Fatalf("expected project list first, got %d", app.state)
	}

	app.Update(views.SwitchToCreateMsg{})
	if app.state != ViewCreate {
		t.Errorf("expected create view, got %d", app.state)
	}

	app.Update(views.SwitchToHelpMsg{})
	if app.state != ViewHelp {
		t.Errorf("expected help view, got %d", app.state)
	}
	app.Update(views.HelpClosedMsg{})
	if app.state != ViewCreate {
		t.Errorf("expected help to return to create view, got %d", app.state)
	}

	app.Update(views.SwitchToProjectsMsg{})
	if app.state != ViewProjects {
		t.Errorf("expected project list, got %d", app.state)
	}
}

func TestApp_StartsInAnnotatorWithProject(t *testing.T) {
	_, pm := setupApp(t)
	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}

	app := NewApp(Deps{Manager: pm, Repo: filesystem.NewRepository()})
	defer app.Close()
	if app.state != ViewAnnotator {
		t.Errorf("expected annotator, got %d", app.state)
	}
}
