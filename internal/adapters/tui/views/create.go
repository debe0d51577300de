package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"yololabel/internal/application"
	"yololabel/internal/application/commands"
)

const (
	createFieldName = iota
	createFieldDescription
	createFieldClasses
	createFieldPath
)

// CreateModel is the form for a new project
type CreateModel struct {
	ViewState
	pm   *application.ProjectManager
	form *InputForm
	busy bool
}

// NewCreateModel creates a new create view model
func NewCreateModel(pm *application.ProjectManager) *CreateModel {
	return &CreateModel{
		pm: pm,
		form: NewInputForm(
			NewInputField("Name", "street-signs", 64).WithValidator(application.ValidateProjectName),
			NewInputField("Description", "optional", 200),
			NewInputField("Classes", "car, person, bike", 0).WithValidator(validateClassList),
			NewInputField("Location", "defaults to <workspace>/<name>", 0),
		),
	}
}

type projectCreatedMsg struct {
	result *commands.CreateProjectResult
	err    error
}

// Reset clears the form for a fresh project
func (m *CreateModel) Reset() {
	m.form.Reset()
	m.ClearMessage()
	m.busy = false
}

// Init initializes the create view
func (m *CreateModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the create view
func (m *CreateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case projectCreatedMsg:
		m.busy = false
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.Reset()
		return m, func() tea.Msg { return SwitchToAnnotatorMsg{} }

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.form.Keys.Cancel):
			m.Reset()
			return m, func() tea.Msg { return SwitchToProjectsMsg{} }
		case key.Matches(msg, m.form.Keys.Submit):
			return m, m.submit()
		}
	}

	_, cmd := m.form.Update(msg)
	return m, cmd
}

func (m *CreateModel) submit() tea.Cmd {
	if err := m.form.Validate(); err != nil {
		m.SetMessage(err.Error(), true)
		return nil
	}
	c := commands.NewCreateProjectCommand(m.pm,
		m.form.Value(createFieldName),
		m.form.Value(createFieldDescription),
		m.form.Value(createFieldPath),
	)
	c.Classes = SplitList(m.form.Value(createFieldClasses))
	if err := c.Validate(); err != nil {
		m.SetMessage(err.Error(), true)
		return nil
	}

	m.busy = true
	m.SetMessage("Creating project...", false)
	return func() tea.Msg {
		res, err := c.Execute(context.Background())
		return projectCreatedMsg{result: res, err: err}
	}
}

func validateClassList(s string) error {
	for _, name := range SplitList(s) {
		if err := application.ValidateClassName(name); err != nil {
			return err
		}
	}
	return nil
}

// SplitList splits comma separated input, dropping empty entries
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// View renders the create view
func (m *CreateModel) View() string {
	v := NewScreen("New Project", "Creates images/, labels/ and classes.txt in the project directory")
	for i := range m.form.Fields {
		v.Line(m.form.RenderField(i))
	}
	v.Gap()
	v.Status(m.Message, m.MessageErr)
	v.Line(m.form.RenderHelp("create"))
	return v.String()
}
