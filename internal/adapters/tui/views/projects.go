package views

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"yololabel/internal/adapters/tui/styles"
	"yololabel/internal/application"
	"yololabel/internal/application/commands"
	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

// ProjectsKeyMap defines key bindings for the project list
type ProjectsKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Open     key.Binding
	New      key.Binding
	Delete   key.Binding
	Copy     key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var ProjectsKeys = ProjectsKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("h", "left", "pgup"),
		key.WithHelp("h/←", "page up"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("l", "right", "pgdown"),
		key.WithHelp("l/→", "page down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Delete: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "delete"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// projectRows is the list height before the first window size arrives
const projectRows = 15

// ProjectEntry is one row of the project list
type ProjectEntry struct {
	Name    string
	Path    string
	Recent  bool
	Summary string
}

// ProjectsModel lists recent projects first, then the rest of the workspace
type ProjectsModel struct {
	ViewState
	pm      *application.ProjectManager
	repo    ports.ProjectRepository
	index   ports.ProjectIndex
	entries []ProjectEntry
	scroll  *Scroller
	confirm ConfirmationModel
}

// NewProjectsModel creates a project list. index may be nil.
func NewProjectsModel(pm *application.ProjectManager, repo ports.ProjectRepository, index ports.ProjectIndex) *ProjectsModel {
	return &ProjectsModel{
		pm:      pm,
		repo:    repo,
		index:   index,
		scroll:  NewScroller(projectRows),
		confirm: NewConfirmationModel(),
	}
}

type projectsLoadedMsg struct {
	entries []ProjectEntry
	err     error
}

type projectOpenedMsg struct {
	result *commands.OpenProjectResult
	err    error
}

type projectDeletedMsg struct {
	result *commands.DeleteProjectResult
	err    error
}

// Init loads the list
func (m *ProjectsModel) Init() tea.Cmd {
	return m.Reload()
}

// Reload re-reads recent and workspace projects
func (m *ProjectsModel) Reload() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.loadEntries()
		return projectsLoadedMsg{entries: entries, err: err}
	}
}

func (m *ProjectsModel) loadEntries() ([]ProjectEntry, error) {
	var entries []ProjectEntry
	seen := make(map[string]bool)

	ws := m.pm.Workspace()
	root := ""
	if ws != nil {
		cfg := ws.Config()
		root = cfg.WorkspacePath
		for _, r := range cfg.RecentProjects {
			seen[r.Path] = true
			entries = append(entries, ProjectEntry{
				Name:    r.Name,
				Path:    r.Path,
				Recent:  true,
				Summary: "opened " + r.LastOpened.Format("2006-01-02 15:04"),
			})
		}
	}
	if root == "" {
		return entries, nil
	}

	if m.index != nil {
		if _, err := m.index.SyncIncremental(); err != nil {
			return entries, fmt.Errorf("failed to sync project index: %w", err)
		}
	}
	listed, err := commands.NewListProjectsCommand(m.repo, m.index, root).Execute(context.Background())
	if err != nil {
		return entries, err
	}
	for _, p := range listed {
		if seen[p.Path] {
			continue
		}
		entries = append(entries, ProjectEntry{Name: p.Name, Path: p.Path, Summary: summarize(p)})
	}
	return entries, nil
}

func summarize(p domain.IndexedProject) string {
	return fmt.Sprintf("%d images, %d labeled, %d classes", p.ImageCount, p.LabeledCount, p.ClassCount)
}

// Selected returns the entry under the cursor
func (m *ProjectsModel) Selected() (ProjectEntry, bool) {
	if len(m.entries) == 0 {
		return ProjectEntry{}, false
	}
	return m.entries[m.scroll.Cursor()], true
}

// Update handles messages for the project list
func (m *ProjectsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		// title, subtitle, position, status and help lines
		m.scroll.SetHeight(msg.Height - 10)
		return m, nil

	case projectsLoadedMsg:
		m.entries = msg.entries
		m.scroll.SetLen(len(m.entries))
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
		}
		return m, nil

	case projectOpenedMsg:
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.ClearMessage()
		return m, func() tea.Msg { return SwitchToAnnotatorMsg{} }

	case projectDeletedMsg:
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.SetMessage(msg.result.Message, false)
		return m, m.Reload()

	case tea.KeyMsg:
		if handled, cmd := m.confirm.HandleKeyMsg(msg); handled {
			return m, cmd
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *ProjectsModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, ProjectsKeys.Quit):
		return tea.Quit
	case key.Matches(msg, ProjectsKeys.Up):
		m.scroll.Move(-1)
	case key.Matches(msg, ProjectsKeys.Down):
		m.scroll.Move(1)
	case key.Matches(msg, ProjectsKeys.PrevPage):
		m.scroll.Page(-1)
	case key.Matches(msg, ProjectsKeys.NextPage):
		m.scroll.Page(1)
	case key.Matches(msg, ProjectsKeys.Refresh):
		m.ClearMessage()
		return m.Reload()
	case key.Matches(msg, ProjectsKeys.Help):
		return func() tea.Msg { return SwitchToHelpMsg{} }
	case key.Matches(msg, ProjectsKeys.New):
		return func() tea.Msg { return SwitchToCreateMsg{} }
	case key.Matches(msg, ProjectsKeys.Open):
		entry, ok := m.Selected()
		if !ok {
			return nil
		}
		m.SetMessage("Opening "+entry.Name+"...", false)
		return m.open(entry.Path)
	case key.Matches(msg, ProjectsKeys.Delete):
		entry, ok := m.Selected()
		if !ok {
			return nil
		}
		m.confirm.Ask("Delete project", entry.Path, func() tea.Cmd {
			return m.delete(entry.Path)
		})
	case key.Matches(msg, ProjectsKeys.Copy):
		entry, ok := m.Selected()
		if !ok {
			return nil
		}
		if err := clipboard.WriteAll(entry.Path); err != nil {
			m.SetMessage("Clipboard unavailable: "+err.Error(), true)
		} else {
			m.SetMessage("Copied "+entry.Path, false)
		}
	}
	return nil
}

func (m *ProjectsModel) open(path string) tea.Cmd {
	return func() tea.Msg {
		res, err := commands.NewOpenProjectCommand(m.pm, path).Execute(context.Background())
		return projectOpenedMsg{result: res, err: err}
	}
}

func (m *ProjectsModel) delete(path string) tea.Cmd {
	return func() tea.Msg {
		res, err := commands.NewDeleteProjectCommand(m.pm, path).Execute(context.Background())
		return projectDeletedMsg{result: res, err: err}
	}
}

// View renders the project list
func (m *ProjectsModel) View() string {
	subtitle := ""
	if ws := m.pm.Workspace(); ws != nil {
		subtitle = "Workspace: " + ws.WorkspacePath()
	}
	v := NewScreen("YOLO Label", subtitle)

	if len(m.entries) == 0 {
		v.Muted("No projects yet. Press n to create one.").Gap()
	} else {
		start, end := m.scroll.Window()
		for i := start; i < end; i++ {
			v.Line(m.renderEntry(m.entries[i], i == m.scroll.Cursor()))
		}
		if pos := m.scroll.Position(); pos != "" {
			v.Muted(pos)
		}
		v.Gap()
	}

	if m.confirm.Active {
		v.Line(m.confirm.View()).Gap()
	}
	v.Status(m.Message, m.MessageErr)
	v.Keys(ProjectsKeys.Open, ProjectsKeys.New, ProjectsKeys.Delete, ProjectsKeys.Copy, ProjectsKeys.Help, ProjectsKeys.Quit)
	return v.String()
}

func (m *ProjectsModel) renderEntry(e ProjectEntry, selected bool) string {
	marker := "  "
	if e.Recent {
		marker = "★ "
	}
	line := marker + padRight(e.Name, 28) + " " + e.Summary
	if selected {
		return styles.ListSelected.Render(line)
	}
	return styles.ListItem.Render(marker+padRight(e.Name, 28)) + " " + RenderMuted(e.Summary)
}
