package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"yololabel/internal/adapters/filesystem"
	"yololabel/internal/domain"
)

func setupWorkspace(t *testing.T, names ...string) (string, *filesystem.Repository) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	ws := t.TempDir()
	repo := filesystem.NewRepository()
	for _, name := range names {
		p := domain.NewProject(name, "", filepath.Join(ws, name), time.Now())
		p.Classes = domain.NewClassRegistry("car")
		if err := repo.Create(p); err != nil {
			t.Fatalf("failed to create project %s: %v", name, err)
		}
	}
	return ws, repo
}

func openIndex(t *testing.T, ws string, repo *filesystem.Repository) *Index {
	t.Helper()
	idx := NewIndex(repo, nil)
	if err := idx.Open(ws); err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSyncFull(t *testing.T) {
	ws, repo := setupWorkspace(t, "beta", "Alpha")
	if err := os.MkdirAll(filepath.Join(ws, ".hidden", "x"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ws, ".hidden", "x", domain.ProjectFileName), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	idx := openIndex(t, ws, repo)
	if !idx.NeedsFullRebuild() {
		t.Error("expected a fresh index to need a rebuild")
	}

	stats, err := idx.SyncFull()
	if err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}
	if stats.ProjectsAdded != 2 {
		t.Errorf("expected 2 projects, got %d", stats.ProjectsAdded)
	}
	if idx.NeedsFullRebuild() {
		t.Error("expected no rebuild after a full sync")
	}

	list, err := idx.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "Alpha" || list[1].Name != "beta" {
		t.Errorf("unexpected list %+v", list)
	}
	if list[0].ClassCount != 1 {
		t.Errorf("expected class count 1, got %d", list[0].ClassCount)
	}
}

func TestSyncIncremental(t *testing.T) {
	ws, repo := setupWorkspace(t, "one", "two")
	idx := openIndex(t, ws, repo)
	if _, err := idx.SyncFull(); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(filepath.Join(ws, "two")); err != nil {
		t.Fatal(err)
	}
	p := domain.NewProject("three", "", filepath.Join(ws, "three"), time.Now())
	if err := repo.Create(p); err != nil {
		t.Fatal(err)
	}

	stats, err := idx.SyncIncremental()
	if err != nil {
		t.Fatalf("SyncIncremental failed: %v", err)
	}
	if stats.ProjectsAdded != 1 || stats.ProjectsDeleted != 1 || stats.ProjectsUpdated != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}

	got, err := idx.Get(filepath.Join(ws, "two"))
	if err != nil || got != nil {
		t.Errorf("expected deleted project to be gone, got %+v %v", got, err)
	}
	got, err = idx.Get(filepath.Join(ws, "three"))
	if err != nil || got == nil || got.Name != "three" {
		t.Errorf("expected new project indexed, got %+v %v", got, err)
	}
}

func TestTrackAndForget(t *testing.T) {
	ws, repo := setupWorkspace(t, "demo")
	idx := openIndex(t, ws, repo)

	p, err := repo.Load(filepath.Join(ws, "demo"))
	if err != nil {
		t.Fatal(err)
	}
	img := domain.NewImageRecord(filepath.Join(p.ImagesDir(), "a.png"), 10, 10)
	img.Add(domain.NewAnnotation(0, "car", domain.Box{XCenter: 0.5, YCenter: 0.5, Width: 0.1, Height: 0.1}))
	if err := p.AddImage(img); err != nil {
		t.Fatal(err)
	}

	idx.Track(p)
	idx.Track(nil)

	got, err := idx.Get(p.Path)
	if err != nil || got == nil {
		t.Fatalf("expected tracked project, got %v", err)
	}
	if got.ImageCount != 1 || got.LabeledCount != 1 || got.AnnotationCount != 1 || got.ID != p.ID {
		t.Errorf("unexpected row %+v", got)
	}

	if err := idx.Forget(p.Path); err != nil {
		t.Fatal(err)
	}
	if got, _ := idx.Get(p.Path); got != nil {
		t.Error("expected row to be removed")
	}
}

func TestTrack_SkipsUnchangedRows(t *testing.T) {
	ws, repo := setupWorkspace(t, "demo")
	idx := openIndex(t, ws, repo)

	p, err := repo.Load(filepath.Join(ws, "demo"))
	if err != nil {
		t.Fatal(err)
	}
	idx.Track(p)
	if got, err := idx.Get(p.Path); err != nil || got == nil || got.Name != "demo" {
		t.Fatalf("expected tracked row, got %+v %v", got, err)
	}

	// Mark the stored row; an unchanged project must not overwrite it
	if _, err := idx.db.Exec(`UPDATE projects SET name = 'marked' WHERE path = ?`, p.Path); err != nil {
		t.Fatal(err)
	}
	idx.Track(p)
	if got, _ := idx.Get(p.Path); got == nil || got.Name != "marked" {
		t.Errorf("expected unchanged project to be skipped, got %+v", got)
	}

	if _, err := p.Classes.Add("bus"); err != nil {
		t.Fatal(err)
	}
	idx.Track(p)
	got, _ := idx.Get(p.Path)
	if got == nil || got.Name != "demo" || got.ClassCount != 2 {
		t.Errorf("expected changed project to be written, got %+v", got)
	}

	// A row still waiting for the writer is dropped by Forget
	p.Name = "renamed"
	idx.Track(p)
	if err := idx.Forget(p.Path); err != nil {
		t.Fatal(err)
	}
	if got, _ := idx.Get(p.Path); got != nil {
		t.Errorf("expected forgotten project to stay removed, got %+v", got)
	}
}

func TestClose_WritesPendingRows(t *testing.T) {
	ws, repo := setupWorkspace(t, "demo")
	idx := NewIndex(repo, nil)
	if err := idx.Open(ws); err != nil {
		t.Fatal(err)
	}
	p, err := repo.Load(filepath.Join(ws, "demo"))
	if err != nil {
		t.Fatal(err)
	}
	idx.Track(p)
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	again := openIndex(t, ws, repo)
	if got, err := again.Get(p.Path); err != nil || got == nil {
		t.Errorf("expected row written before close, got %+v %v", got, err)
	}
}

func TestTransactionRollback(t *testing.T) {
	ws, repo := setupWorkspace(t)
	idx := openIndex(t, ws, repo)

	tx, err := idx.BeginTx()
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.UpsertProject(&domain.IndexedProject{Path: "/p", Name: "p"}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	list, err := idx.List()
	if err != nil || len(list) != 0 {
		t.Errorf("expected empty index after rollback, got %v %v", list, err)
	}
}

func TestDatabasePath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	got := databasePath("/ws")
	if filepath.Dir(got) != "/data/yololabel" || filepath.Ext(got) != ".db" {
		t.Errorf("unexpected database path %s", got)
	}
	if databasePath("/ws") != got || databasePath("/other") == got {
		t.Error("expected one database per workspace")
	}
}
