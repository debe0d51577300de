package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"yololabel/internal/adapters/tui/views"
	"yololabel/internal/application"
	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewProjects ViewState = iota
	ViewCreate
	ViewAnnotator
	ViewHelp
)

// App is the main TUI application model
type App struct {
	pm     *application.ProjectManager
	editor ports.EditorOpener

	state     ViewState
	helpFrom  ViewState
	projects  *views.ProjectsModel
	create    *views.CreateModel
	annotator *views.AnnotatorModel
	help      *views.HelpModel

	changes     chan struct{}
	unsubscribe func()

	width  int
	height int
}

// Deps are the collaborators of the TUI. Index, Editor and Viewer may be nil.
type Deps struct {
	Manager *application.ProjectManager
	Repo    ports.ProjectRepository
	Index   ports.ProjectIndex
	Editor  ports.EditorOpener
	Viewer  ports.ImageViewer
}

// NewApp creates a new TUI application. It starts in the annotator when a
// project is already loaded.
func NewApp(d Deps) *App {
	a := &App{
		pm:        d.Manager,
		editor:    d.Editor,
		state:     ViewProjects,
		projects:  views.NewProjectsModel(d.Manager, d.Repo, d.Index),
		create:    views.NewCreateModel(d.Manager),
		annotator: views.NewAnnotatorModel(d.Manager, d.Viewer),
		help:      views.NewHelpModel(),
		changes:   make(chan struct{}, 1),
	}
	// Listeners run on whatever goroutine changed the project, so they only
	// flag the change; waitForChange turns it into a message.
	a.unsubscribe = d.Manager.Subscribe(func(*domain.Project) {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	})
	if d.Manager.Current() != nil {
		a.state = ViewAnnotator
	}
	return a
}

// Close detaches the app from the project manager
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a *App) waitForChange() tea.Msg {
	<-a.changes
	return views.ProjectChangedMsg{}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.projects.Init(), a.waitForChange}
	if a.state == ViewAnnotator {
		cmds = append(cmds, a.annotator.Enter())
	}
	return tea.Batch(cmds...)
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.projects.SetSize(msg.Width, msg.Height)
		a.create.SetSize(msg.Width, msg.Height)
		a.annotator.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.ProjectChangedMsg:
		_, cmd := a.annotator.Update(msg)
		return a, tea.Batch(cmd, a.waitForChange)

	// View switching messages
	case views.SwitchToProjectsMsg:
		a.state = ViewProjects
		return a, a.projects.Reload()

	case views.SwitchToCreateMsg:
		a.state = ViewCreate
		a.create.Reset()
		return a, a.create.Init()

	case views.SwitchToAnnotatorMsg:
		a.state = ViewAnnotator
		return a, a.annotator.Enter()

	case views.SwitchToHelpMsg:
		a.helpFrom = a.state
		a.state = ViewHelp
		return a, nil

	case views.HelpClosedMsg:
		a.state = a.helpFrom
		return a, nil

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path)

	case views.EditorFinishedMsg:
		_, cmd := a.annotator.Update(msg)
		return a, cmd
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewProjects:
		_, cmd = a.projects.Update(msg)
	case ViewCreate:
		_, cmd = a.create.Update(msg)
	case ViewAnnotator:
		_, cmd = a.annotator.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

func (a *App) openEditor(path string) tea.Cmd {
	if a.editor == nil {
		return func() tea.Msg {
			return views.StatusMsg{Text: "no editor configured", IsErr: true}
		}
	}

	cmd, err := a.editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return views.EditorFinishedMsg{Path: path, Err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return views.EditorFinishedMsg{Path: path, Err: err}
	})
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewCreate:
		return a.create.View()
	case ViewAnnotator:
		return a.annotator.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.projects.View()
	}
}
