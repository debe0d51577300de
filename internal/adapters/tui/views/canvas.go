package views

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"

	"yololabel/internal/adapters/tui/styles"
	"yololabel/internal/domain"
)

// cellAspect is the number of viewer pixels stacked in one terminal row.
// Each cell renders two half-block pixels, which keeps pixels roughly square.
const cellAspect = 2

// previewMaxSide bounds the decoded preview kept in memory
const previewMaxSide = 1024

const (
	emptyColor = "#374151"
	halfBlock  = '▀'
)

// PanelSize converts a cell grid into viewer-pixel dimensions
func PanelSize(cols, rows int) (w, h float64) {
	return float64(cols), float64(rows * cellAspect)
}

// CellToViewer maps a terminal cell to the viewer pixel at its center
func CellToViewer(col, row int) (x, y float64) {
	return float64(col) + 0.5, float64(row*cellAspect) + float64(cellAspect)/2
}

// LoadPreview decodes an image for on-screen display, downscaled to a
// bounded size
func LoadPreview(path string) (image.Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return imaging.Fit(src, previewMaxSide, previewMaxSide, imaging.Box), nil
}

// ScalePreview resizes a decoded preview to the size the viewport displays
func ScalePreview(src image.Image, v domain.Viewport) image.Image {
	if src == nil || !v.Valid() {
		return nil
	}
	w := int(math.Ceil(float64(v.ImageW) * v.Scale))
	h := int(math.Ceil(float64(v.ImageH) * v.Scale))
	if w < 1 || h < 1 {
		return nil
	}
	return imaging.Resize(src, w, h, imaging.Box)
}

type cell struct {
	ch   rune
	fg   string
	bg   string
	bold bool
}

// Canvas renders an image and its boxes onto a grid of terminal cells
type Canvas struct {
	Cols      int
	Rows      int
	Viewport  domain.Viewport
	Preview   image.Image // already scaled with ScalePreview, may be nil
	ShowNames bool
	cells     [][]cell
}

// Rect is a rectangle in viewer pixels
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Render draws the image, its annotations and an optional candidate
// rectangle. selected is the index of the highlighted annotation or -1.
func (c *Canvas) Render(anns []domain.Annotation, selected int, candidate *Rect) string {
	c.paint(anns, selected, candidate)

	var b strings.Builder
	for r, row := range c.cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for i := 1; i <= len(row); i++ {
			if i < len(row) && sameStyle(row[i], row[start]) {
				continue
			}
			b.WriteString(renderRun(row[start:i]))
			start = i
		}
	}
	return b.String()
}

func (c *Canvas) paint(anns []domain.Annotation, selected int, candidate *Rect) {
	c.cells = make([][]cell, c.Rows)
	for r := range c.cells {
		c.cells[r] = make([]cell, c.Cols)
		for col := range c.cells[r] {
			c.cells[r][col] = cell{ch: ' ', bg: string(styles.Canvas)}
		}
	}
	if !c.Viewport.Valid() {
		return
	}

	c.paintImage()
	for i, a := range anns {
		color := string(styles.ClassColor(a.ClassID))
		if i == selected {
			color = string(styles.White)
		}
		x1, y1, x2, y2 := domain.ToPixelCorners(a.Box, c.Viewport.ImageW, c.Viewport.ImageH)
		sx1, sy1 := domain.ImageToScreen(float64(x1), float64(y1), c.Viewport)
		sx2, sy2 := domain.ImageToScreen(float64(x2), float64(y2), c.Viewport)
		c.outline(Rect{sx1, sy1, sx2, sy2}, color, i == selected, solidBorder)
		if c.ShowNames && a.ClassName != "" {
			c.label(Rect{sx1, sy1, sx2, sy2}, a.ClassName, color)
		}
	}
	if candidate != nil {
		c.outline(*candidate, string(styles.White), true, dashedBorder)
	}
}

func (c *Canvas) paintImage() {
	v := c.Viewport
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			x := float64(col) + 0.5
			top, topOK := c.pixel(x, float64(r*cellAspect)+0.5, v)
			bottom, bottomOK := c.pixel(x, float64(r*cellAspect)+1.5, v)
			if !topOK && !bottomOK {
				continue
			}
			if !topOK {
				top = string(styles.Canvas)
			}
			if !bottomOK {
				bottom = string(styles.Canvas)
			}
			c.cells[r][col] = cell{ch: halfBlock, fg: top, bg: bottom}
		}
	}
}

// pixel returns the color shown at a viewer pixel and whether it lies on the image
func (c *Canvas) pixel(x, y float64, v domain.Viewport) (string, bool) {
	if !v.OnImage(x, y) {
		return "", false
	}
	if c.Preview == nil {
		return emptyColor, true
	}
	bounds := c.Preview.Bounds()
	px := min(max(int(x-v.OffsetX), 0), bounds.Dx()-1)
	py := min(max(int(y-v.OffsetY), 0), bounds.Dy()-1)
	r, g, b, _ := c.Preview.At(bounds.Min.X+px, bounds.Min.Y+py).RGBA()
	return fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8), true
}

type borderSet struct {
	h, v, tl, tr, bl, br rune
}

var (
	solidBorder  = borderSet{'─', '│', '┌', '┐', '└', '┘'}
	dashedBorder = borderSet{'┄', '┆', '┌', '┐', '└', '┘'}
)

// cellRect maps a viewer-pixel rectangle onto inclusive cell bounds
func (c *Canvas) cellRect(rect Rect) (c1, r1, c2, r2 int, ok bool) {
	c1 = int(math.Floor(math.Min(rect.X1, rect.X2)))
	c2 = int(math.Ceil(math.Max(rect.X1, rect.X2))) - 1
	r1 = int(math.Floor(math.Min(rect.Y1, rect.Y2) / cellAspect))
	r2 = int(math.Ceil(math.Max(rect.Y1, rect.Y2)/cellAspect)) - 1
	c2, r2 = max(c1, c2), max(r1, r2)
	if c2 < 0 || r2 < 0 || c1 >= c.Cols || r1 >= c.Rows {
		return 0, 0, 0, 0, false
	}
	return c1, r1, c2, r2, true
}

func (c *Canvas) outline(rect Rect, color string, bold bool, set borderSet) {
	c1, r1, c2, r2, ok := c.cellRect(rect)
	if !ok {
		return
	}
	for col := c1; col <= c2; col++ {
		c.set(col, r1, set.h, color, bold)
		c.set(col, r2, set.h, color, bold)
	}
	for r := r1; r <= r2; r++ {
		c.set(c1, r, set.v, color, bold)
		c.set(c2, r, set.v, color, bold)
	}
	c.set(c1, r1, set.tl, color, bold)
	c.set(c2, r1, set.tr, color, bold)
	c.set(c1, r2, set.bl, color, bold)
	c.set(c2, r2, set.br, color, bold)
}

func (c *Canvas) label(rect Rect, name, color string) {
	c1, r1, c2, _, ok := c.cellRect(rect)
	if !ok {
		return
	}
	room := c2 - c1 - 1
	for i, ch := range []rune(name) {
		if i >= room {
			break
		}
		c.set(c1+1+i, r1, ch, color, true)
	}
}

// set draws a glyph over a cell, keeping the image color behind it
func (c *Canvas) set(col, row int, ch rune, color string, bold bool) {
	if col < 0 || row < 0 || col >= c.Cols || row >= c.Rows {
		return
	}
	cur := c.cells[row][col]
	bg := cur.bg
	if cur.ch == halfBlock {
		bg = cur.fg
	}
	c.cells[row][col] = cell{ch: ch, fg: color, bg: bg, bold: bold}
}

func sameStyle(a, b cell) bool {
	return a.fg == b.fg && a.bg == b.bg && a.bold == b.bold
}

func renderRun(run []cell) string {
	var text strings.Builder
	for _, c := range run {
		text.WriteRune(c.ch)
	}
	style := lipgloss.NewStyle().Background(lipgloss.Color(run[0].bg)).Bold(run[0].bold)
	if run[0].fg != "" {
		style = style.Foreground(lipgloss.Color(run[0].fg))
	}
	return style.Render(text.String())
}
