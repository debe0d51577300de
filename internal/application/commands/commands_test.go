package commands

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"yololabel/internal/adapters/filesystem"
	"yololabel/internal/adapters/imagefile"
	"yololabel/internal/application"
	"yololabel/internal/ports"
)

func setupManager(t *testing.T) (*application.ProjectManager, string) {
	t.Helper()

	root := t.TempDir()
	ws := application.NewWorkspaceManager(
		filesystem.NewWorkspaceStore(filepath.Join(root, "workspace.json"), filepath.Join(root, "ws")), nil)
	if err := ws.Load(); err != nil {
		t.Fatalf("failed to load workspace: %v", err)
	}
	pm := application.NewProjectManager(filesystem.NewRepository(), imagefile.NewProcessor(), application.WithWorkspace(ws))
	t.Cleanup(func() { pm.Close() })
	return pm, root
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := imaging.Save(imaging.New(w, h, color.White), path); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func TestCreateProjectCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		project string
		classes []string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid project",
			project: "Street Cams",
			classes: []string{"car", "person"},
		},
		{
			name:    "empty name",
			project: "",
			wantErr: true,
			errMsg:  "project name is required",
		},
		{
			name:    "path separator in name",
			project: "a/b",
			wantErr: true,
			errMsg:  "invalid project name",
		},
		{
			name:    "blank class",
			project: "Demo",
			classes: []string{"car", " "},
			wantErr: true,
			errMsg:  "class name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &CreateProjectCommand{Name: tt.project, Classes: tt.classes}
			err := cmd.Validate()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
					return
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestProjectLifecycleCommands(t *testing.T) {
	pm, root := setupManager(t)
	ctx := context.Background()

	create := NewCreateProjectCommand(pm, "Demo", "desc", "")
	create.Classes = []string{"car", "person"}
	created, err := create.Execute(ctx)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	wantPath := filepath.Join(root, "ws", "Demo")
	if created.Project.Path != wantPath {
		t.Errorf("expected path %s, got %s", wantPath, created.Project.Path)
	}
	if created.Project.Classes.Len() != 2 {
		t.Errorf("expected 2 classes, got %d", created.Project.Classes.Len())
	}

	opened, err := NewOpenProjectCommand(pm, "Demo").Execute(ctx)
	if err != nil {
		t.Fatalf("open by name failed: %v", err)
	}
	if !strings.Contains(opened.Message, "0 images") {
		t.Errorf("unexpected message %q", opened.Message)
	}

	if _, err := NewRenameProjectCommand(pm, "Demo", "Renamed").Execute(ctx); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if pm.Current().Name != "Renamed" {
		t.Errorf("expected renamed project, got %s", pm.Current().Name)
	}

	list, err := NewListProjectsCommand(filesystem.NewRepository(), nil, filepath.Join(root, "ws")).Execute(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Renamed" || list[0].ClassCount != 2 {
		t.Errorf("unexpected list %+v", list)
	}

	if _, err := NewDeleteProjectCommand(pm, wantPath).Execute(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if pm.State() != application.NoProject {
		t.Error("expected NoProject after deleting the current project")
	}

	_, err = NewOpenProjectCommand(pm, wantPath).Execute(ctx)
	if !errors.Is(err, application.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestClassCommands(t *testing.T) {
	pm, _ := setupManager(t)
	ctx := context.Background()

	if _, err := NewAddClassCommand(pm, "car").Execute(ctx); !errors.Is(err, application.ErrNoProject) {
		t.Errorf("expected ErrNoProject, got %v", err)
	}
	if _, err := NewCreateProjectCommand(pm, "Demo", "", "").Execute(ctx); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"car", "person", "dog"} {
		if _, err := NewAddClassCommand(pm, name).Execute(ctx); err != nil {
			t.Fatalf("add %s failed: %v", name, err)
		}
	}
	dup, err := NewAddClassCommand(pm, "car").Execute(ctx)
	if err != nil || dup.ID != 0 || !strings.Contains(dup.Message, "already exists") {
		t.Errorf("expected duplicate no-op, got %+v %v", dup, err)
	}

	removed, err := NewRemoveClassCommand(pm, "1").Execute(ctx)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if removed.Name != "person" || strings.Join(removed.Classes, ",") != "car,dog" {
		t.Errorf("unexpected remove result %+v", removed)
	}

	renamed, err := NewRenameClassCommand(pm, "dog", "canine").Execute(ctx)
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed.ID != 1 || strings.Join(renamed.Classes, ",") != "car,canine" {
		t.Errorf("unexpected rename result %+v", renamed)
	}

	if _, err := NewRemoveClassCommand(pm, "zebra").Execute(ctx); !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestImportAnnotateExport(t *testing.T) {
	pm, _ := setupManager(t)
	ctx := context.Background()
	src := t.TempDir()

	create := NewCreateProjectCommand(pm, "Demo", "", "")
	create.Classes = []string{"car", "person"}
	if _, err := create.Execute(ctx); err != nil {
		t.Fatal(err)
	}

	imported, err := NewImportImagesCommand(pm, []string{
		writePNG(t, src, "img1.png", 100, 100),
		writePNG(t, src, "img2.png", 100, 100),
		filepath.Join(src, "missing.png"),
	}).Execute(ctx)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if imported.Imported != 2 || imported.Failed != 1 {
		t.Errorf("expected 2 imported and 1 failed, got %+v", imported)
	}

	ann, err := NewAnnotateCommand(pm, "img1.png", "", 0, 0, 50, 50).Execute(ctx)
	if err != nil {
		t.Fatalf("annotate failed: %v", err)
	}
	if ann.Line != "0 0.250000 0.250000 0.500000 0.500000" {
		t.Errorf("unexpected line %q", ann.Line)
	}
	if _, err := NewAnnotateCommand(pm, "img2.png", "person", 10, 10, 30, 40).Execute(ctx); err != nil {
		t.Fatalf("annotate failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(pm.Current().LabelsDir(), "img1.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0 0.250000 0.250000 0.500000 0.500000\n" {
		t.Errorf("unexpected label file %q", data)
	}

	exported, err := NewExportDatasetCommand(pm, "", 0.5).Execute(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exported.Summary.Train != 1 || exported.Summary.Val != 1 {
		t.Errorf("unexpected split %+v", exported.Summary)
	}

	msg, err := NewClearLabelsCommand(pm, "img2.png").Execute(ctx)
	if err != nil || !strings.Contains(msg, "Cleared 1") {
		t.Errorf("unexpected clear result %q %v", msg, err)
	}

	if _, err := NewRemoveImageCommand(pm, "img2.png").Execute(ctx); err != nil {
		t.Fatalf("remove image failed: %v", err)
	}
	if len(pm.Current().Images) != 1 {
		t.Errorf("expected 1 image left, got %d", len(pm.Current().Images))
	}
}

func TestAnnotateCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     AnnotateCommand
		wantErr bool
	}{
		{"valid", AnnotateCommand{Image: "a.png", X1: 1, Y1: 1, X2: 5, Y2: 5}, false},
		{"missing image", AnnotateCommand{X1: 1, Y1: 1, X2: 5, Y2: 5}, true},
		{"zero width", AnnotateCommand{Image: "a.png", X1: 3, Y1: 1, X2: 3, Y2: 5}, true},
		{"zero height", AnnotateCommand{Image: "a.png", X1: 1, Y1: 2, X2: 5, Y2: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type fakeTrainer struct {
	available bool
	got       ports.TrainRequest
}

func (f *fakeTrainer) IsAvailable() bool { return f.available }

func (f *fakeTrainer) Train(ctx context.Context, req ports.TrainRequest) (*ports.TrainResult, error) {
	f.got = req
	return &ports.TrainResult{RunDir: filepath.Join(req.ProjectPath, "runs", "train"), WeightsPath: "best.pt"}, nil
}

func TestTrainCommand(t *testing.T) {
	pm, root := setupManager(t)
	ctx := context.Background()

	if err := NewTrainCommand(pm, &fakeTrainer{}, 0.2).Validate(); err == nil {
		t.Error("expected error when trainer is unavailable")
	}

	create := NewCreateProjectCommand(pm, "Demo", "", "")
	create.Classes = []string{"car"}
	if _, err := create.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	trainer := &fakeTrainer{available: true}
	if _, err := NewTrainCommand(pm, trainer, 0.2).Execute(ctx); !errors.Is(err, application.ErrValidation) {
		t.Errorf("expected validation error with no labeled images, got %v", err)
	}

	if _, err := NewImportImagesCommand(pm, []string{writePNG(t, t.TempDir(), "a.png", 10, 10)}).Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := NewAnnotateCommand(pm, "a.png", "car", 1, 1, 5, 5).Execute(ctx); err != nil {
		t.Fatal(err)
	}

	res, err := NewTrainCommand(pm, trainer, 0.2).Execute(ctx)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if trainer.got.DatasetFile != res.Export.DescriptorPath {
		t.Errorf("trainer got dataset %s, want %s", trainer.got.DatasetFile, res.Export.DescriptorPath)
	}
	if trainer.got.WorkspacePath != filepath.Join(root, "ws") || trainer.got.ProjectID == "" {
		t.Errorf("unexpected request %+v", trainer.got)
	}
	if !strings.Contains(res.Message, "best.pt") {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestOpenProjectCommand_ReportsUnreadableLabels(t *testing.T) {
	pm, root := setupManager(t)
	ctx := context.Background()

	if _, err := NewCreateProjectCommand(pm, "Demo", "", "").Execute(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	src := t.TempDir()
	for _, name := range []string{"a.png", "b.png"} {
		if _, err := pm.AddImageToProject(ctx, writePNG(t, src, name, 8, 8)); err != nil {
			t.Fatalf("import %s failed: %v", name, err)
		}
	}
	labels := filepath.Join(root, "ws", "Demo", "labels")
	if err := os.WriteFile(filepath.Join(labels, "b.txt"), []byte("0 0.5 0.5 0.2 0.2 0.93\n"), 0644); err != nil {
		t.Fatal(err)
	}

	opened, err := NewOpenProjectCommand(pm, "Demo").Execute(ctx)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if len(opened.Project.Images) != 2 {
		t.Errorf("expected both images, got %d", len(opened.Project.Images))
	}
	if len(opened.LabelErrors) != 1 || opened.LabelErrors[0].Filename != "b.png" {
		t.Errorf("expected one label error for b.png, got %v", opened.LabelErrors)
	}
}
