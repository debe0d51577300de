package views

import (
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/disintegration/imaging"

	"yololabel/internal/adapters/filesystem"
	"yololabel/internal/adapters/imagefile"
	"yololabel/internal/application"
	"yololabel/internal/domain"
)

func setupManager(t *testing.T) (*application.ProjectManager, string) {
	t.Helper()
	root := t.TempDir()
	ws := filepath.Join(root, "ws")
	store := filesystem.NewWorkspaceStore(filepath.Join(root, "workspace.json"), ws)
	wm := application.NewWorkspaceManager(store, nil)
	if err := wm.Load(); err != nil {
		t.Fatal(err)
	}
	pm := application.NewProjectManager(filesystem.NewRepository(), imagefile.NewProcessor(), application.WithWorkspace(wm))
	t.Cleanup(func() { _ = pm.Close() })
	return pm, ws
}

func addImage(t *testing.T, pm *application.ProjectManager, name string, w, h int) *domain.ImageRecord {
	t.Helper()
	src := filepath.Join(t.TempDir(), name)
	if err := imaging.Save(imaging.New(w, h, color.NRGBA{B: 200, A: 255}), src); err != nil {
		t.Fatal(err)
	}
	img, err := pm.AddImageToProject(t.Context(), src)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(x, y int, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

// newAnnotator lays out a 100x20 cell canvas, i.e. a 100x40 viewer panel
func newAnnotator(t *testing.T, pm *application.ProjectManager) *AnnotatorModel {
	t.Helper()
	m := NewAnnotatorModel(pm, nil)
	m.SetSize(100+sidebarWidth, 20+headerHeight+footerHeight)
	m.Enter()
	return m
}

func drag(m *AnnotatorModel, x1, y1, x2, y2 int) {
	m.Update(mouse(x1, y1, tea.MouseActionPress))
	m.Update(mouse((x1+x2)/2, (y1+y2)/2, tea.MouseActionMotion))
	m.Update(mouse(x2, y2, tea.MouseActionRelease))
}

func TestSplitList(t *testing.T) {
	got := SplitList(" car, person ,,bike ")
	if len(got) != 3 || got[0] != "car" || got[1] != "person" || got[2] != "bike" {
		t.Errorf("SplitList() = %q", got)
	}
	if SplitList("  ") != nil {
		t.Error("expected nil for blank input")
	}
}

func TestCreateModel_Submit(t *testing.T) {
	pm, ws := setupManager(t)
	m := NewCreateModel(pm)
	m.form.Fields[createFieldName].Input.SetValue("Signs")
	m.form.Fields[createFieldClasses].Input.SetValue("stop, yield")

	cmd := m.submit()
	if cmd == nil {
		t.Fatalf("expected submit command, message: %s", m.Message)
	}
	_, next := m.Update(cmd())
	if next == nil {
		t.Fatal("expected switch to annotator")
	}
	if _, ok := next().(SwitchToAnnotatorMsg); !ok {
		t.Error("expected SwitchToAnnotatorMsg")
	}

	p := pm.Current()
	if p == nil || p.Path != filepath.Join(ws, "Signs") {
		t.Fatalf("unexpected current project %+v", p)
	}
	if names := p.Classes.Names(); len(names) != 2 || names[1] != "yield" {
		t.Errorf("unexpected classes %v", names)
	}
}

func TestCreateModel_InvalidName(t *testing.T) {
	pm, _ := setupManager(t)
	m := NewCreateModel(pm)
	m.form.Fields[createFieldName].Input.SetValue("bad/name")

	if cmd := m.submit(); cmd != nil {
		t.Error("expected no command for an invalid name")
	}
	if !m.MessageErr {
		t.Error("expected an error message")
	}
}

func TestProjectsModel_RecentFirst(t *testing.T) {
	pm, ws := setupManager(t)
	other := domain.NewProject("Other", "", filepath.Join(ws, "Other"), time.Now())
	if err := filesystem.NewRepository().Create(other); err != nil {
		t.Fatal(err)
	}
	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}

	m := NewProjectsModel(pm, filesystem.NewRepository(), nil)
	entries, err := m.loadEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if !entries[0].Recent || entries[0].Name != "Demo" {
		t.Errorf("expected recent Demo first, got %+v", entries[0])
	}
	if entries[1].Recent || entries[1].Name != "Other" || entries[1].Summary != "0 images, 0 labeled, 0 classes" {
		t.Errorf("unexpected workspace entry %+v", entries[1])
	}
}

func TestAnnotator_DrawSelectDelete(t *testing.T) {
	pm, _ := setupManager(t)
	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := pm.AddClass("car"); err != nil {
		t.Fatal(err)
	}
	img := addImage(t, pm, "img1.png", 100, 50)
	m := newAnnotator(t, pm)

	// The image is fitted at scale 0.72 with its top-left at viewer (14, 2)
	drag(m, 20, 2, 50, 11)
	if len(img.Annotations) != 1 {
		t.Fatalf("expected one box, got %d (%s)", len(img.Annotations), m.Message)
	}
	if img.Annotations[0].ClassName != "car" {
		t.Errorf("unexpected class %q", img.Annotations[0].ClassName)
	}

	m.draw.Select(-1)
	m.Update(mouse(30, 6, tea.MouseActionPress))
	m.Update(mouse(30, 6, tea.MouseActionRelease))
	if m.draw.Selected() != 0 {
		t.Fatalf("expected click to select the box, got %d", m.draw.Selected())
	}

	m.Update(keyMsg("x"))
	if len(img.Annotations) != 0 {
		t.Error("expected selected box to be deleted")
	}
}

func TestAnnotator_NoClass(t *testing.T) {
	pm, _ := setupManager(t)
	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}
	img := addImage(t, pm, "img1.png", 100, 50)
	m := newAnnotator(t, pm)

	drag(m, 20, 2, 50, 11)
	if len(img.Annotations) != 0 {
		t.Error("expected no box without a class")
	}
	if !m.MessageErr {
		t.Error("expected a hint to add a class")
	}
}

func TestAnnotator_Keys(t *testing.T) {
	pm, _ := setupManager(t)
	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}
	for _, c := range []string{"car", "person", "bike"} {
		if _, err := pm.AddClass(c); err != nil {
			t.Fatal(err)
		}
	}
	addImage(t, pm, "a.png", 40, 40)
	addImage(t, pm, "b.png", 40, 40)
	m := newAnnotator(t, pm)

	m.Update(keyMsg("2"))
	if got := pm.Current().Classes.Selected(); got != 1 {
		t.Errorf("expected class 1 selected, got %d", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := pm.Current().Classes.Selected(); got != 2 {
		t.Errorf("expected tab to select class 2, got %d", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := pm.Current().Classes.Selected(); got != 0 {
		t.Errorf("expected tab to wrap to class 0, got %d", got)
	}

	if m.nav.Index() != 0 {
		t.Fatalf("expected first image open, got %d", m.nav.Index())
	}
	m.Update(keyMsg("n"))
	if m.nav.Index() != 1 || m.draw.Image().Filename != "b.png" {
		t.Errorf("expected second image, got %d", m.nav.Index())
	}
	m.Update(keyMsg("n"))
	if m.nav.Index() != 1 {
		t.Error("expected to stay on the last image")
	}
	m.Update(keyMsg("p"))
	if m.draw.Image().Filename != "a.png" {
		t.Errorf("expected first image, got %s", m.draw.Image().Filename)
	}
}

func TestAnnotator_AddClassPrompt(t *testing.T) {
	pm, _ := setupManager(t)
	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}
	m := newAnnotator(t, pm)

	m.Update(keyMsg("a"))
	if m.prompt == nil {
		t.Fatal("expected class prompt")
	}
	m.prompt.Fields[0].Input.SetValue("truck")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.prompt != nil {
		t.Error("expected prompt to close")
	}
	if names := pm.Current().Classes.Names(); len(names) != 1 || names[0] != "truck" {
		t.Errorf("unexpected classes %v", names)
	}
}

func TestAnnotator_StatusBar(t *testing.T) {
	pm, _ := setupManager(t)
	if _, err := pm.CreateProject("Demo", "", ""); err != nil {
		t.Fatal(err)
	}
	addImage(t, pm, "img1.png", 100, 50)
	m := newAnnotator(t, pm)

	footer := m.renderFooter()
	if !strings.Contains(footer, "no class") {
		t.Errorf("expected the class slot to say no class, got %q", footer)
	}

	if _, err := pm.AddClass("car"); err != nil {
		t.Fatal(err)
	}
	m.Message = strings.Repeat("long status ", 40)
	footer = m.renderFooter()
	if !strings.Contains(footer, "car") {
		t.Errorf("expected the selected class in the status bar, got %q", footer)
	}
	if lines := strings.Count(footer, "\n") + 1; lines != footerHeight {
		t.Errorf("expected a %d line footer, got %d", footerHeight, lines)
	}
}
