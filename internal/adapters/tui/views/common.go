package views

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// SetError shows err, or clears the message when err is nil
func (s *ViewState) SetError(err error) {
	if err == nil {
		s.ClearMessage()
		return
	}
	s.SetMessage(err.Error(), true)
}

// View switching messages
type (
	SwitchToProjectsMsg  struct{}
	SwitchToCreateMsg    struct{}
	SwitchToAnnotatorMsg struct{}
	SwitchToHelpMsg      struct{}
)

// ProjectChangedMsg is delivered after every change of the current project
type ProjectChangedMsg struct{}

// OpenEditorMsg asks the app to suspend and edit a label file
type OpenEditorMsg struct {
	Path string
}

// EditorFinishedMsg is sent when the external editor exits
type EditorFinishedMsg struct {
	Path string
	Err  error
}

// StatusMsg shows a message in the active view
type StatusMsg struct {
	Text  string
	IsErr bool
}
