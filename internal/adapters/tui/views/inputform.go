package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"yololabel/internal/adapters/tui/styles"
)

// FormKeyMap defines key bindings shared by forms and prompts
type FormKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
	Next   key.Binding
	Prev   key.Binding
}

var FormKeys = FormKeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "previous field"),
	),
}

// InputField is a labeled text input. Validate, when set, checks the
// trimmed value on submit.
type InputField struct {
	Label    string
	Input    textinput.Model
	Validate func(string) error
	Err      string
}

// InputForm is a column of fields with one focused at a time
type InputForm struct {
	Fields       []InputField
	FocusedField int
	Keys         FormKeyMap
}

// NewInputForm creates a form and focuses its first field
func NewInputForm(fields ...InputField) *InputForm {
	f := &InputForm{Fields: fields, Keys: FormKeys}
	f.focus(0)
	return f
}

// NewInputField creates a field; charLimit 0 means unlimited
func NewInputField(label, placeholder string, charLimit int) InputField {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = charLimit
	return InputField{Label: label, Input: input}
}

// WithValidator attaches a check run by InputForm.Validate
func (f InputField) WithValidator(fn func(string) error) InputField {
	f.Validate = fn
	return f
}

// Init starts the cursor blinking
func (f *InputForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update moves focus on next/prev keys and passes everything else to the
// focused input. It reports whether the message was a focus change.
func (f *InputForm) Update(msg tea.Msg) (bool, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && len(f.Fields) > 1 {
		switch {
		case key.Matches(k, f.Keys.Next):
			f.focus((f.FocusedField + 1) % len(f.Fields))
			return true, nil
		case key.Matches(k, f.Keys.Prev):
			f.focus((f.FocusedField - 1 + len(f.Fields)) % len(f.Fields))
			return true, nil
		}
	}

	if f.FocusedField >= len(f.Fields) {
		return false, nil
	}
	field := &f.Fields[f.FocusedField]
	var cmd tea.Cmd
	field.Input, cmd = field.Input.Update(msg)
	field.Err = ""
	return false, cmd
}

// Value returns the trimmed value of a field
func (f *InputForm) Value(index int) string {
	if index < 0 || index >= len(f.Fields) {
		return ""
	}
	return strings.TrimSpace(f.Fields[index].Input.Value())
}

// Validate runs every field's check, records the messages and focuses the
// first failing field. It returns the first error.
func (f *InputForm) Validate() error {
	var first error
	for i := range f.Fields {
		field := &f.Fields[i]
		field.Err = ""
		if field.Validate == nil {
			continue
		}
		if err := field.Validate(f.Value(i)); err != nil {
			field.Err = err.Error()
			if first == nil {
				first = err
				f.focus(i)
			}
		}
	}
	return first
}

// Reset clears every field and focuses the first one
func (f *InputForm) Reset() {
	for i := range f.Fields {
		f.Fields[i].Input.Reset()
		f.Fields[i].Err = ""
	}
	f.focus(0)
}

func (f *InputForm) focus(index int) {
	for i := range f.Fields {
		if i == index {
			f.Fields[i].Input.Focus()
		} else {
			f.Fields[i].Input.Blur()
		}
	}
	f.FocusedField = index
}

// RenderField renders a field as a label line over a boxed input, with
// its validation message underneath
func (f *InputForm) RenderField(index int) string {
	if index < 0 || index >= len(f.Fields) {
		return ""
	}
	field := f.Fields[index]

	box := styles.InputField
	if index == f.FocusedField {
		box = styles.InputFocused
	}
	out := styles.InputLabel.Render(field.Label) + "\n" + box.Render(field.Input.View())
	if field.Err != "" {
		out += "\n" + styles.ErrorMsg.Render(field.Err)
	}
	return out
}

// RenderInline renders a field on one line, for prompts in a status bar
func (f *InputForm) RenderInline(index int) string {
	if index < 0 || index >= len(f.Fields) {
		return ""
	}
	field := f.Fields[index]
	return styles.InputLabel.Render(field.Label+": ") + field.Input.View()
}

// RenderHelp renders the form keys with submitText for enter
func (f *InputForm) RenderHelp(submitText string) string {
	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", submitText))
	if len(f.Fields) > 1 {
		return RenderHelpLine(f.Keys.Next, submit, f.Keys.Cancel)
	}
	return RenderHelpLine(submit, f.Keys.Cancel)
}
