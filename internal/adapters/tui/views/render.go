package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"yololabel/internal/adapters/tui/styles"
)

// RenderHelpLine renders key bindings as "key desc" pairs joined by bullets
func RenderHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

// RenderMessage renders a status message, red for errors
func RenderMessage(message string, isError bool) string {
	if message == "" {
		return ""
	}
	if isError {
		return styles.ErrorMsg.Render(message)
	}
	return styles.Success.Render(message)
}

// RenderStatusBar renders a full-width bar with a highlighted key on the left
func RenderStatusBar(key, text string, width int) string {
	bar := styles.StatusKey.Render(key) + text
	if width > 0 {
		return styles.StatusBar.Width(width).MaxHeight(1).Render(bar)
	}
	return styles.StatusBar.Render(bar)
}

// RenderMuted renders secondary text
func RenderMuted(text string) string {
	return styles.MutedText.Render(text)
}

// RenderLabelValue renders a "label: value" pair
func RenderLabelValue(label, value string) string {
	return styles.InputLabel.Render(label+":") + " " + value
}

// RenderSwatch renders a block in the color boxes of the class are drawn in
func RenderSwatch(classID int) string {
	return lipgloss.NewStyle().Foreground(styles.ClassColor(classID)).Render("■")
}

// RenderClassText renders text in a class color
func RenderClassText(classID int, text string) string {
	return lipgloss.NewStyle().Foreground(styles.ClassColor(classID)).Render(text)
}

// Screen assembles a full-screen page: title, body lines, status and keys
type Screen struct {
	b strings.Builder
}

// NewScreen starts a page with a title and an optional subtitle
func NewScreen(title, subtitle string) *Screen {
	s := &Screen{}
	s.b.WriteString(styles.Title.Render(title))
	s.b.WriteString("\n")
	if subtitle != "" {
		s.b.WriteString(styles.Subtitle.Render(subtitle))
		s.b.WriteString("\n")
	}
	s.b.WriteString("\n")
	return s
}

// Line adds a line of text
func (s *Screen) Line(text string) *Screen {
	s.b.WriteString(text)
	s.b.WriteString("\n")
	return s
}

// Linef adds a formatted line of text
func (s *Screen) Linef(format string, args ...any) *Screen {
	return s.Line(fmt.Sprintf(format, args...))
}

// Muted adds a line of secondary text
func (s *Screen) Muted(text string) *Screen {
	return s.Line(RenderMuted(text))
}

// Gap adds an empty line
func (s *Screen) Gap() *Screen {
	s.b.WriteString("\n")
	return s
}

// Status adds the message line when there is one
func (s *Screen) Status(message string, isError bool) *Screen {
	if message == "" {
		return s
	}
	return s.Line(RenderMessage(message, isError)).Gap()
}

// Keys ends the page with a help line
func (s *Screen) Keys(bindings ...key.Binding) *Screen {
	s.b.WriteString(RenderHelpLine(bindings...))
	return s
}

// String returns the page inside the app frame
func (s *Screen) String() string {
	return styles.App.Render(s.b.String())
}
