package views

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"yololabel/internal/adapters/tui/styles"
	"yololabel/internal/application"
	"yololabel/internal/application/commands"
	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

const (
	headerHeight = 1
	footerHeight = 2
	sidebarWidth = 32
)

// AnnotatorKeyMap defines key bindings for the annotator
type AnnotatorKeyMap struct {
	Next      key.Binding
	Prev      key.Binding
	NextClass key.Binding
	PrevClass key.Binding
	NextBox   key.Binding
	Delete    key.Binding
	Undo      key.Binding
	Clear     key.Binding
	AddClass  key.Binding
	Import    key.Binding
	Edit      key.Binding
	View      key.Binding
	Copy      key.Binding
	Export    key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var AnnotatorKeys = AnnotatorKeyMap{
	Next: key.NewBinding(
		key.WithKeys("right", "l", "n"),
		key.WithHelp("→/n", "next image"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "p"),
		key.WithHelp("←/p", "prev image"),
	),
	NextClass: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next class"),
	),
	PrevClass: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev class"),
	),
	NextBox: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "select box"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x", "delete", "backspace"),
		key.WithHelp("x", "delete box"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u", "ctrl+z"),
		key.WithHelp("u", "undo"),
	),
	Clear: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "clear labels"),
	),
	AddClass: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add class"),
	),
	Import: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "import"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit labels"),
	),
	View: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open image"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy labels"),
	),
	Export: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "export"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "projects"),
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

type promptKind int

const (
	promptNone promptKind = iota
	promptClass
	promptImport
)

// AnnotatorModel draws boxes on the images of the current project
type AnnotatorModel struct {
	ViewState
	pm      *application.ProjectManager
	nav     *application.Navigator
	draw    *application.DrawInteraction
	viewer  ports.ImageViewer
	confirm ConfirmationModel

	prompt     *InputForm
	promptKind promptKind
	busy       bool

	previewPath string
	preview     image.Image
	scaled      image.Image
	scaledFor   domain.Viewport
}

// NewAnnotatorModel creates the annotator. viewer may be nil.
func NewAnnotatorModel(pm *application.ProjectManager, viewer ports.ImageViewer) *AnnotatorModel {
	return &AnnotatorModel{
		pm:      pm,
		nav:     application.NewNavigator(pm),
		draw:    application.NewDrawInteraction(pm),
		viewer:  viewer,
		confirm: NewConfirmationModel(),
	}
}

type previewLoadedMsg struct {
	path string
	img  image.Image
	err  error
}

type importDoneMsg struct {
	result *commands.ImportImagesResult
	err    error
}

// Init satisfies tea.Model; the annotator is started through Enter
func (m *AnnotatorModel) Init() tea.Cmd {
	return nil
}

// Enter shows the open image, or the first one of a freshly loaded project
func (m *AnnotatorModel) Enter() tea.Cmd {
	if m.nav.Current() == nil && m.nav.Len() > 0 {
		return m.open(func(ctx context.Context) (*domain.ImageRecord, error) { return m.nav.Open(ctx, 0) })
	}
	return m.show(m.nav.Current())
}

// SetSize updates the layout and refits the image
func (m *AnnotatorModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	m.refit()
}

func (m *AnnotatorModel) canvasSize() (cols, rows int) {
	return max(m.Width-sidebarWidth, 10), max(m.Height-headerHeight-footerHeight, 3)
}

func (m *AnnotatorModel) open(fn func(context.Context) (*domain.ImageRecord, error)) tea.Cmd {
	img, err := fn(context.Background())
	if err != nil {
		m.SetError(err)
		return nil
	}
	return m.show(img)
}

func (m *AnnotatorModel) show(img *domain.ImageRecord) tea.Cmd {
	if img != m.draw.Image() {
		m.draw.SetImage(img)
	}
	m.refit()
	if img == nil {
		m.previewPath, m.preview, m.scaled = "", nil, nil
		return nil
	}
	if img.Path == m.previewPath {
		return nil
	}

	path := img.Path
	m.previewPath, m.preview, m.scaled = path, nil, nil
	return func() tea.Msg {
		src, err := LoadPreview(path)
		return previewLoadedMsg{path: path, img: src, err: err}
	}
}

func (m *AnnotatorModel) refit() {
	img := m.draw.Image()
	if img == nil || !img.HasDimensions() {
		m.draw.SetViewport(domain.Viewport{})
		return
	}
	w, h := PanelSize(m.canvasSize())
	m.draw.SetViewport(domain.FitScale(w, h, img.Width, img.Height, domain.DefaultFitMargin))
}

// Update handles messages for the annotator
func (m *AnnotatorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case ProjectChangedMsg:
		if m.pm.Current() == nil {
			return m, m.show(nil)
		}
		return m, m.Enter()

	case previewLoadedMsg:
		if msg.path != m.previewPath {
			return m, nil
		}
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.preview, m.scaled = msg.img, nil
		return m, nil

	case importDoneMsg:
		m.busy = false
		if msg.result != nil {
			m.SetMessage(msg.result.Message, msg.result.Failed > 0)
		}
		if msg.err != nil {
			m.SetError(msg.err)
		}
		return m, m.Enter()

	case EditorFinishedMsg:
		return m, m.reloadLabels(msg)

	case StatusMsg:
		m.busy = false
		m.SetMessage(msg.Text, msg.IsErr)
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if m.prompt != nil {
			return m, m.handlePrompt(msg)
		}
		if handled, cmd := m.confirm.HandleKeyMsg(msg); handled {
			return m, cmd
		}
		return m, m.handleKey(msg)
	}

	if m.prompt != nil {
		_, cmd := m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *AnnotatorModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.prompt != nil || m.confirm.Active {
		return nil
	}
	col, row := msg.X, msg.Y-headerHeight
	x, y := CellToViewer(col, row)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		return m.open(m.nav.Prev)
	case msg.Button == tea.MouseButtonWheelDown:
		return m.open(m.nav.Next)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		m.draw.Cancel()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		cols, rows := m.canvasSize()
		if col < 0 || row < 0 || col >= cols || row >= rows {
			return nil
		}
		m.draw.PointerDown(x, y)
	case msg.Action == tea.MouseActionMotion:
		m.draw.PointerMove(x, y)
	case msg.Action == tea.MouseActionRelease:
		dragging := m.draw.State() == application.DrawDragging
		ann, err := m.draw.PointerUp(x, y)
		switch {
		case err != nil:
			m.SetError(err)
		case ann != nil:
			m.SetMessage("Added "+ann.ClassName, false)
		case dragging && m.classCount() == 0:
			m.SetMessage("Add a class with 'a' before drawing", true)
		}
	}
	return nil
}

func (m *AnnotatorModel) classCount() int {
	if p := m.pm.Current(); p != nil {
		return p.Classes.Len()
	}
	return 0
}

func (m *AnnotatorModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		m.selectClass(int(s[0] - '1'))
		return nil
	}

	switch {
	case key.Matches(msg, AnnotatorKeys.Quit):
		return tea.Quit
	case key.Matches(msg, AnnotatorKeys.Back):
		if m.draw.State() == application.DrawDragging {
			m.draw.Cancel()
			return nil
		}
		if err := m.pm.Flush(context.Background()); err != nil {
			m.SetError(err)
			return nil
		}
		m.ClearMessage()
		return func() tea.Msg { return SwitchToProjectsMsg{} }
	case key.Matches(msg, AnnotatorKeys.Help):
		return func() tea.Msg { return SwitchToHelpMsg{} }
	case key.Matches(msg, AnnotatorKeys.Next):
		return m.open(m.nav.Next)
	case key.Matches(msg, AnnotatorKeys.Prev):
		return m.open(m.nav.Prev)
	case key.Matches(msg, AnnotatorKeys.NextClass):
		m.cycleClass(1)
	case key.Matches(msg, AnnotatorKeys.PrevClass):
		m.cycleClass(-1)
	case key.Matches(msg, AnnotatorKeys.NextBox):
		if img := m.draw.Image(); img != nil && len(img.Annotations) > 0 {
			m.draw.Select((m.draw.Selected() + 1) % len(img.Annotations))
		}
	case key.Matches(msg, AnnotatorKeys.Delete):
		removed, err := m.draw.DeleteSelected()
		if err != nil {
			m.SetError(err)
		} else if removed {
			m.SetMessage("Box deleted", false)
		}
	case key.Matches(msg, AnnotatorKeys.Undo):
		removed, err := m.draw.Undo()
		if err != nil {
			m.SetError(err)
		} else if removed {
			m.SetMessage("Undone", false)
		}
	case key.Matches(msg, AnnotatorKeys.Clear):
		img := m.draw.Image()
		if img == nil || len(img.Annotations) == 0 {
			return nil
		}
		m.confirm.Ask("Clear all boxes of", img.Filename, func() tea.Cmd {
			if err := m.draw.ClearAll(); err != nil {
				m.SetError(err)
			} else {
				m.SetMessage("Labels cleared", false)
			}
			return nil
		})
	case key.Matches(msg, AnnotatorKeys.AddClass):
		return m.openPrompt(promptClass, "New class", "class name")
	case key.Matches(msg, AnnotatorKeys.Import):
		return m.openPrompt(promptImport, "Import", "files or directories, comma separated")
	case key.Matches(msg, AnnotatorKeys.Edit):
		return m.editLabels()
	case key.Matches(msg, AnnotatorKeys.View):
		if img := m.draw.Image(); img != nil && m.viewer != nil {
			m.SetError(m.viewer.Open(img.Path))
		}
	case key.Matches(msg, AnnotatorKeys.Copy):
		m.copyLabels()
	case key.Matches(msg, AnnotatorKeys.Export):
		return m.export()
	}
	return nil
}

func (m *AnnotatorModel) selectClass(id int) {
	if id >= m.classCount() {
		return
	}
	if err := m.pm.SelectClass(id); err != nil {
		m.SetError(err)
	}
}

func (m *AnnotatorModel) cycleClass(step int) {
	p := m.pm.Current()
	if p == nil || p.Classes.Len() == 0 {
		return
	}
	n := p.Classes.Len()
	m.selectClass(((p.Classes.Selected()+step)%n + n) % n)
}

func (m *AnnotatorModel) openPrompt(kind promptKind, label, placeholder string) tea.Cmd {
	if m.pm.Current() == nil || m.busy {
		return nil
	}
	m.promptKind = kind
	m.prompt = NewInputForm(NewInputField(label, placeholder, 0))
	return m.prompt.Init()
}

func (m *AnnotatorModel) handlePrompt(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.prompt.Keys.Cancel):
		m.prompt = nil
		return nil
	case key.Matches(msg, m.prompt.Keys.Submit):
		value := m.prompt.Value(0)
		kind := m.promptKind
		m.prompt = nil
		if value == "" {
			return nil
		}
		return m.submitPrompt(kind, value)
	}
	_, cmd := m.prompt.Update(msg)
	return cmd
}

func (m *AnnotatorModel) submitPrompt(kind promptKind, value string) tea.Cmd {
	ctx := context.Background()
	switch kind {
	case promptClass:
		res, err := commands.NewAddClassCommand(m.pm, value).Execute(ctx)
		if err != nil {
			m.SetError(err)
			return nil
		}
		m.selectClass(res.ID)
		m.SetMessage(res.Message, false)
	case promptImport:
		c := commands.NewImportImagesCommand(m.pm, SplitList(value))
		if err := c.Validate(); err != nil {
			m.SetError(err)
			return nil
		}
		m.busy = true
		m.SetMessage("Importing...", false)
		return func() tea.Msg {
			res, err := c.Execute(ctx)
			return importDoneMsg{result: res, err: err}
		}
	}
	return nil
}

func (m *AnnotatorModel) editLabels() tea.Cmd {
	p, img := m.pm.Current(), m.draw.Image()
	if p == nil || img == nil {
		return nil
	}
	if err := m.pm.Flush(context.Background()); err != nil {
		m.SetError(err)
		return nil
	}
	path := p.LabelPath(img)
	return func() tea.Msg { return OpenEditorMsg{Path: path} }
}

func (m *AnnotatorModel) reloadLabels(msg EditorFinishedMsg) tea.Cmd {
	if msg.Err != nil {
		m.SetError(msg.Err)
		return nil
	}
	img := m.draw.Image()
	if img == nil {
		return nil
	}
	m.draw.SetImage(img)
	if err := m.pm.ReloadImageLabels(context.Background(), img); err != nil {
		m.SetError(err)
		return nil
	}
	m.SetMessage(fmt.Sprintf("Reloaded %d boxes", len(img.Annotations)), false)
	return nil
}

func (m *AnnotatorModel) copyLabels() {
	img := m.draw.Image()
	if img == nil {
		return
	}
	text := string(domain.FormatLabelFile(img.Annotations))
	if i := m.draw.Selected(); i >= 0 {
		text = img.Annotations[i].FormatLine()
	}
	if err := clipboard.WriteAll(text); err != nil {
		m.SetMessage("Clipboard unavailable: "+err.Error(), true)
		return
	}
	m.SetMessage("Copied labels", false)
}

func (m *AnnotatorModel) export() tea.Cmd {
	if m.pm.Current() == nil || m.busy {
		return nil
	}
	m.busy = true
	m.SetMessage("Exporting...", false)
	return func() tea.Msg {
		res, err := commands.NewExportDatasetCommand(m.pm, "", application.DefaultValRatio).Execute(context.Background())
		if err != nil {
			return StatusMsg{Text: err.Error(), IsErr: true}
		}
		return StatusMsg{Text: res.Message}
	}
}

// View renders the annotator
func (m *AnnotatorModel) View() string {
	p := m.pm.Current()
	if p == nil {
		return NewScreen("No project", "").Muted("Press esc to pick a project.").String()
	}

	cols, rows := m.canvasSize()
	v := m.draw.Viewport()
	if m.preview != nil && (m.scaled == nil || m.scaledFor != v) {
		m.scaled, m.scaledFor = ScalePreview(m.preview, v), v
	}

	canvas := &Canvas{Cols: cols, Rows: rows, Viewport: v, Preview: m.scaled, ShowNames: m.showNames()}
	var anns []domain.Annotation
	if img := m.draw.Image(); img != nil {
		anns = img.Annotations
	}
	var candidate *Rect
	if x1, y1, x2, y2, ok := m.draw.Candidate(); ok {
		candidate = &Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		canvas.Render(anns, m.draw.Selected(), candidate),
		styles.Sidebar.Width(sidebarWidth-1).Height(rows).Render(m.renderSidebar(p)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(p), body, m.renderFooter())
}

func (m *AnnotatorModel) showNames() bool {
	if ws := m.pm.Workspace(); ws != nil {
		return ws.Config().Settings.ShowClassNames
	}
	return true
}

func (m *AnnotatorModel) renderHeader(p *domain.Project) string {
	title := p.Name
	if img := m.draw.Image(); img != nil {
		title += fmt.Sprintf("  %s  %d×%d  [%d/%d]", img.Filename, img.Width, img.Height, m.nav.Index()+1, m.nav.Len())
	} else {
		title += "  no images, press i to import"
	}
	return styles.Header.Width(m.Width).Render(title)
}

func (m *AnnotatorModel) renderSidebar(p *domain.Project) string {
	var b strings.Builder

	b.WriteString(styles.SidebarTitle.Render("Classes"))
	b.WriteString("\n")
	if p.Classes.Len() == 0 {
		b.WriteString(RenderMuted("none, press a"))
		b.WriteString("\n")
	}
	for id, name := range p.Classes.Names() {
		marker := "  "
		if id == p.Classes.Selected() {
			marker = "▸ "
		}
		b.WriteString(fmt.Sprintf("%s%d %s %s\n", marker, id+1, RenderSwatch(id), truncate(name, sidebarWidth-10)))
	}

	b.WriteString("\n")
	img := m.draw.Image()
	if img != nil {
		b.WriteString(styles.SidebarTitle.Render(fmt.Sprintf("Boxes (%d)", len(img.Annotations))))
		b.WriteString("\n")
		for i, a := range img.Annotations {
			line := fmt.Sprintf("%s %.2f %.2f %.2f %.2f", truncate(a.ClassName, 8), a.XCenter, a.YCenter, a.Width, a.Height)
			if i == m.draw.Selected() {
				b.WriteString(styles.ListSelected.Render(line))
			} else {
				b.WriteString(RenderClassText(a.ClassID, line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	stats := p.Stats()
	b.WriteString(RenderMuted(fmt.Sprintf("%d/%d labeled", stats.Labeled, stats.Images)))
	return b.String()
}

func (m *AnnotatorModel) renderFooter() string {
	mode := "no class"
	if p := m.pm.Current(); p != nil {
		if name, ok := p.Classes.SelectedName(); ok {
			mode = name
		}
	}

	var text string
	switch {
	case m.Message != "":
		text = RenderMessage(m.Message, m.MessageErr)
	case m.draw.State() == application.DrawDragging:
		mode = "DRAW"
		text = styles.Candidate.Render("drawing...")
	default:
		text = styles.StatusText.Render("drag to draw, click to select")
	}
	status := RenderStatusBar(mode, text, m.Width)

	var bottom string
	switch {
	case m.prompt != nil:
		bottom = m.prompt.RenderInline(0)
	case m.confirm.Active:
		bottom = RenderLabelValue(m.confirm.Question, m.confirm.Target) + "  " + RenderConfirmPrompt("")
	default:
		bottom = RenderHelpLine(AnnotatorKeys.Next, AnnotatorKeys.NextClass, AnnotatorKeys.Delete,
			AnnotatorKeys.Undo, AnnotatorKeys.AddClass, AnnotatorKeys.Import, AnnotatorKeys.Help)
	}
	return status + "\n" + bottom
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
