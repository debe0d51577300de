package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"yololabel/internal/domain"
)

func setupTestProject(t *testing.T) (*Repository, *domain.Project) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "Demo")
	repo := NewRepository()
	p := domain.NewProject("Demo", "test project", root, time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local))
	p.Classes = domain.NewClassRegistry("car", "person")

	if err := repo.Create(p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return repo, p
}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not really an image"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func TestCreate_Layout(t *testing.T) {
	repo, p := setupTestProject(t)

	for _, path := range []string{p.ImagesDir(), p.LabelsDir()} {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", path)
		}
	}
	if !repo.Exists(p.Path) {
		t.Error("expected project.json to exist")
	}

	err := repo.Create(p)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error creating over an existing project, got %v", err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	repo, p := setupTestProject(t)

	img := domain.NewImageRecord(writeImage(t, p.ImagesDir(), "img1.png"), 100, 80)
	img.Add(domain.NewAnnotation(1, "person", domain.Box{XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.4}))
	if err := p.AddImage(img); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.SaveLabels(p.LabelPath(img), img.Annotations); err != nil {
		t.Fatalf("SaveLabels failed: %v", err)
	}

	loaded, err := repo.Load(p.Path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.ID != p.ID || loaded.Name != "Demo" || loaded.Description != "test project" {
		t.Errorf("identity not preserved: %+v", loaded)
	}
	if !loaded.Created.Equal(p.Created) {
		t.Errorf("expected created %v, got %v", p.Created, loaded.Created)
	}
	if got := loaded.Classes.Names(); len(got) != 2 || got[1] != "person" {
		t.Errorf("unexpected classes %v", got)
	}
	if len(loaded.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(loaded.Images))
	}
	li := loaded.Images[0]
	if li.Width != 100 || li.Height != 80 || !li.Labeled {
		t.Errorf("unexpected image record %+v", li)
	}
	if len(li.Annotations) != 1 || li.Annotations[0].ClassName != "person" {
		t.Errorf("unexpected annotations %+v", li.Annotations)
	}
}

func TestProjectJSON_FieldNames(t *testing.T) {
	repo, p := setupTestProject(t)
	if err := p.AddImage(domain.NewImageRecord(writeImage(t, p.ImagesDir(), "a.png"), 4, 3)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(p); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(p.ProjectFile())
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, field := range []string{`"id"`, `"name"`, `"description"`, `"created_date": "2024-05-06 07:08:09"`,
		`"project_path"`, `"classes"`, `"images"`, `"filename"`, `"path"`, `"width"`, `"height"`,
		`"annotations"`, `"labeled"`} {
		if !strings.Contains(content, field) {
			t.Errorf("project.json missing %s", field)
		}
	}

	classes, err := os.ReadFile(p.ClassesFile())
	if err != nil {
		t.Fatal(err)
	}
	if string(classes) != "car\nperson\n" {
		t.Errorf("unexpected classes.txt %q", classes)
	}
}

func TestLoad_LabelFilesWin(t *testing.T) {
	repo, p := setupTestProject(t)
	img := domain.NewImageRecord(writeImage(t, p.ImagesDir(), "a.png"), 10, 10)
	if err := p.AddImage(img); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(p); err != nil {
		t.Fatal(err)
	}

	// Written by the hot path after the last project.json save
	if err := os.WriteFile(p.LabelPath(img), []byte("0 0.5 0.5 0.2 0.2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load(p.Path)
	if err != nil {
		t.Fatal(err)
	}
	got := loaded.Images[0]
	if len(got.Annotations) != 1 || got.Annotations[0].ClassName != "car" || !got.Labeled {
		t.Errorf("expected label file annotation, got %+v", got)
	}
}

func TestLoad_Tolerance(t *testing.T) {
	repo, p := setupTestProject(t)

	raw := `{"id":"project_1","name":"Demo","created_date":"garbage","classes":["a","b"],` +
		`"images":[],"future_field":{"x":1}}`
	if err := os.WriteFile(p.ProjectFile(), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(p.ClassesFile()); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load(p.Path)
	if err != nil {
		t.Fatalf("expected tolerant load, got %v", err)
	}
	if got := loaded.Classes.Names(); len(got) != 2 || got[0] != "a" {
		t.Errorf("expected fallback to project.json classes, got %v", got)
	}
	if !loaded.Created.IsZero() {
		t.Errorf("expected zero created time for unparsable date")
	}
}

func TestLoad_Errors(t *testing.T) {
	repo, p := setupTestProject(t)

	_, err := repo.Load(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, domain.ErrProjectNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}

	if err := os.WriteFile(p.ProjectFile(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = repo.Load(p.Path)
	if !errors.Is(err, domain.ErrProjectCorrupt) || !errors.Is(err, domain.ErrCorrupt) {
		t.Errorf("expected ErrProjectCorrupt, got %v", err)
	}
}

func TestLoad_CorruptLabelFile(t *testing.T) {
	repo, p := setupTestProject(t)
	good := domain.NewImageRecord(writeImage(t, p.ImagesDir(), "a.png"), 10, 10)
	bad := domain.NewImageRecord(writeImage(t, p.ImagesDir(), "b.png"), 10, 10)
	cached := domain.NewAnnotation(1, "person", domain.Box{XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.2})
	bad.Add(cached)
	for _, img := range []*domain.ImageRecord{good, bad} {
		if err := p.AddImage(img); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.Save(p); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p.LabelPath(good), []byte("0 0.250000 0.250000 0.500000 0.500000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// A prediction line with a trailing confidence has six fields
	if err := os.WriteFile(p.LabelPath(bad), []byte("0 0.5 0.5 0.2 0.2 0.93\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load(p.Path)
	if err != nil {
		t.Fatalf("one bad label file must not fail the load: %v", err)
	}
	if len(loaded.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(loaded.Images))
	}
	if anns := loaded.Images[0].Annotations; len(anns) != 1 || anns[0].ClassName != "car" {
		t.Errorf("expected a.png labels from its file, got %+v", anns)
	}
	if anns := loaded.Images[1].Annotations; len(anns) != 1 || anns[0] != cached {
		t.Errorf("expected b.png to keep its cached annotation, got %+v", anns)
	}

	if len(loaded.LabelErrors) != 1 {
		t.Fatalf("expected 1 label error, got %v", loaded.LabelErrors)
	}
	le := loaded.LabelErrors[0]
	if le.Filename != "b.png" || !errors.Is(le, domain.ErrCorrupt) {
		t.Errorf("expected corrupt error for b.png, got %v", le)
	}
}

func TestLoad_RebasesMovedProject(t *testing.T) {
	repo, p := setupTestProject(t)
	img := domain.NewImageRecord(filepath.Join("/nonexistent", "a.png"), 10, 10)
	writeImage(t, p.ImagesDir(), "a.png")
	if err := p.AddImage(img); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(p); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load(p.Path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(p.ImagesDir(), "a.png")
	if loaded.Images[0].Path != want {
		t.Errorf("expected path %s, got %s", want, loaded.Images[0].Path)
	}
}

func TestSaveLabels_Format(t *testing.T) {
	repo, p := setupTestProject(t)
	path := filepath.Join(p.LabelsDir(), "img1.txt")

	anns := []domain.Annotation{domain.NewAnnotation(0, "car", domain.Box{XCenter: 0.25, YCenter: 0.25, Width: 0.5, Height: 0.5})}
	if err := repo.SaveLabels(path, anns); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0 0.250000 0.250000 0.500000 0.500000\n" {
		t.Errorf("unexpected label file %q", data)
	}

	if err := repo.SaveLabels(path, nil); err != nil {
		t.Fatal(err)
	}
	got, err := repo.LoadLabels(path)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty label file, got %v %v", got, err)
	}

	_, err = repo.LoadLabels(filepath.Join(p.LabelsDir(), "nope.txt"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRemoveImageFiles(t *testing.T) {
	repo, p := setupTestProject(t)

	inside := domain.NewImageRecord(writeImage(t, p.ImagesDir(), "in.png"), 1, 1)
	outside := domain.NewImageRecord(writeImage(t, t.TempDir(), "out.png"), 1, 1)
	for _, img := range []*domain.ImageRecord{inside, outside} {
		if err := repo.SaveLabels(p.LabelPath(img), nil); err != nil {
			t.Fatal(err)
		}
		if err := repo.RemoveImageFiles(p, img); err != nil {
			t.Fatalf("RemoveImageFiles failed: %v", err)
		}
		if _, err := os.Stat(p.LabelPath(img)); !os.IsNotExist(err) {
			t.Errorf("label file for %s not removed", img.Filename)
		}
	}

	if _, err := os.Stat(inside.Path); !os.IsNotExist(err) {
		t.Error("expected image copy under images/ to be removed")
	}
	if _, err := os.Stat(outside.Path); err != nil {
		t.Error("image outside the project must not be touched")
	}
}

func TestDelete(t *testing.T) {
	repo, p := setupTestProject(t)

	plain := t.TempDir()
	if err := repo.Delete(plain); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected refusal to delete a non-project directory, got %v", err)
	}

	if err := repo.Delete(p.Path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(p.Path); !os.IsNotExist(err) {
		t.Error("expected project directory to be removed")
	}
}

func TestListProjects(t *testing.T) {
	ws := t.TempDir()
	repo := NewRepository()
	for _, name := range []string{"b", "a"} {
		p := domain.NewProject(name, "", filepath.Join(ws, name), time.Now())
		p.Classes = domain.NewClassRegistry()
		if err := repo.Create(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(ws, "not-a-project"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := repo.ListProjects(ws)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(ws, "a"), filepath.Join(ws, "b")}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}

	none, err := repo.ListProjects(filepath.Join(ws, "missing"))
	if err != nil || len(none) != 0 {
		t.Errorf("expected empty list for missing workspace, got %v %v", none, err)
	}
}
