package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"yololabel/internal/adapters/tui/styles"
)

// ConfirmKeyMap defines key bindings for confirmation prompts
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeys returns the default confirmation key bindings
var DefaultConfirmKeys = ConfirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// ConfirmationModel is an inline yes/no prompt for destructive actions
// (delete project, clear labels). Active is false when no prompt is shown.
type ConfirmationModel struct {
	Active   bool
	Question string
	Target   string
	Keys     ConfirmKeyMap
	onYes    func() tea.Cmd
}

// NewConfirmationModel creates a new confirmation model with default keys
func NewConfirmationModel() ConfirmationModel {
	return ConfirmationModel{
		Keys: DefaultConfirmKeys,
	}
}

// Ask shows the prompt; onYes runs when the user confirms
func (m *ConfirmationModel) Ask(question, target string, onYes func() tea.Cmd) {
	m.Active = true
	m.Question = question
	m.Target = target
	m.onYes = onYes
}

// HandleKeyMsg processes key messages while the prompt is shown.
// Returns (handled, cmd) where handled is true if the key was processed.
func (m *ConfirmationModel) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	if !m.Active {
		return false, nil
	}
	switch {
	case key.Matches(msg, m.Keys.Cancel):
		m.Active = false
		return true, nil
	case key.Matches(msg, m.Keys.Confirm):
		m.Active = false
		if m.onYes != nil {
			return true, m.onYes()
		}
		return true, nil
	}
	return true, nil
}

// View renders the prompt, or nothing when inactive
func (m *ConfirmationModel) View() string {
	if !m.Active {
		return ""
	}
	var b strings.Builder
	if m.Target != "" {
		b.WriteString(RenderLabelValue(m.Question, m.Target))
		b.WriteString("\n")
	}
	b.WriteString(RenderConfirmPrompt("Are you sure?"))
	return b.String()
}

// RenderConfirmPrompt renders the standard confirmation prompt
func RenderConfirmPrompt(question string) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString(" ")
	b.WriteString(styles.HelpKey.Render("y"))
	b.WriteString(styles.HelpDesc.Render(" to confirm, "))
	b.WriteString(styles.HelpKey.Render("n"))
	b.WriteString(styles.HelpDesc.Render(" to cancel"))
	return b.String()
}
