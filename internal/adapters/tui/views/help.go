package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"yololabel/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// HelpClosedMsg returns to the view that opened help
type HelpClosedMsg struct{}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return HelpClosedMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("YOLO Label Help"))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("Projects"))
	b.WriteString("\n")
	b.WriteString(helpLine("j / k / ↑ / ↓", "Move up/down"))
	b.WriteString(helpLine("enter", "Open project"))
	b.WriteString(helpLine("n", "New project"))
	b.WriteString(helpLine("D", "Delete project"))
	b.WriteString(helpLine("y", "Copy project path"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Drawing"))
	b.WriteString("\n")
	b.WriteString(helpLine("drag", "Draw a box with the selected class"))
	b.WriteString(helpLine("click", "Select the topmost box under the pointer"))
	b.WriteString(helpLine("right click / esc", "Cancel the box being drawn"))
	b.WriteString(helpLine("1-9 / tab", "Select class"))
	b.WriteString(helpLine("s", "Cycle box selection"))
	b.WriteString(helpLine("x", "Delete selected box"))
	b.WriteString(helpLine("u", "Undo last box"))
	b.WriteString(helpLine("C", "Clear all boxes of the image"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Images"))
	b.WriteString("\n")
	b.WriteString(helpLine("n / p / wheel", "Next / previous image"))
	b.WriteString(helpLine("i", "Import files or directories"))
	b.WriteString(helpLine("a", "Add class"))
	b.WriteString(helpLine("e", "Edit label file in $EDITOR"))
	b.WriteString(helpLine("o", "Open image in the system viewer"))
	b.WriteString(helpLine("c", "Copy labels to the clipboard"))
	b.WriteString(helpLine("E", "Export train/val dataset"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("General"))
	b.WriteString("\n")
	b.WriteString(helpLine("?", "Toggle help"))
	b.WriteString(helpLine("q / Ctrl+C", "Quit"))
	b.WriteString("\n")

	b.WriteString(styles.MutedText.Render("Labels are saved as you draw, one .txt per image in YOLO format."))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc) + "\n"
}

func padRight(s string, length int) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}
