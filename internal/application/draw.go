package application

import (
	"math"

	"yololabel/internal/domain"
)

// DrawState is the state of a DrawInteraction
type DrawState int

const (
	DrawIdle DrawState = iota
	DrawDragging
)

// clickTolerance is the largest pointer movement still treated as a click
const clickTolerance = 1.0

// DrawInteraction turns pointer gestures in viewer-local coordinates into
// annotation edits on one image. A drag commits a box tagged with the
// selected class; a click selects the topmost box under the pointer.
type DrawInteraction struct {
	pm       *ProjectManager
	image    *domain.ImageRecord
	viewport domain.Viewport

	state          DrawState
	startX, startY float64
	curX, curY     float64
	selected       int
}

// NewDrawInteraction creates an idle interaction with no image
func NewDrawInteraction(pm *ProjectManager) *DrawInteraction {
	return &DrawInteraction{pm: pm, selected: -1}
}

// SetImage switches the image being edited; any drag in progress is dropped
func (d *DrawInteraction) SetImage(img *domain.ImageRecord) {
	d.image = img
	d.state = DrawIdle
	d.selected = -1
}

// Image returns the image being edited
func (d *DrawInteraction) Image() *domain.ImageRecord {
	return d.image
}

// SetViewport updates the screen mapping after a resize or image change
func (d *DrawInteraction) SetViewport(v domain.Viewport) {
	d.viewport = v
}

// Viewport returns the current screen mapping
func (d *DrawInteraction) Viewport() domain.Viewport {
	return d.viewport
}

// State returns Idle or Dragging
func (d *DrawInteraction) State() DrawState {
	return d.state
}

// Selected returns the index of the selected annotation, or -1
func (d *DrawInteraction) Selected() int {
	if d.image == nil || d.selected >= len(d.image.Annotations) {
		return -1
	}
	return d.selected
}

// PointerDown starts a drag. It is ignored when no image is loaded.
func (d *DrawInteraction) PointerDown(x, y float64) bool {
	if d.image == nil || !d.viewport.Valid() {
		return false
	}
	d.state = DrawDragging
	d.startX, d.startY = x, y
	d.curX, d.curY = x, y
	return true
}

// PointerMove updates the candidate rectangle while dragging
func (d *DrawInteraction) PointerMove(x, y float64) {
	if d.state != DrawDragging {
		return
	}
	d.curX, d.curY = x, y
}

// Candidate returns the rectangle being dragged in viewer-local coordinates
func (d *DrawInteraction) Candidate() (x1, y1, x2, y2 float64, ok bool) {
	if d.state != DrawDragging {
		return 0, 0, 0, 0, false
	}
	return math.Min(d.startX, d.curX), math.Min(d.startY, d.curY),
		math.Max(d.startX, d.curX), math.Max(d.startY, d.curY), true
}

// Cancel abandons a drag without committing
func (d *DrawInteraction) Cancel() {
	d.state = DrawIdle
}

// PointerUp ends a gesture. A drag commits a box when it is not degenerate
// and a class exists; a click changes the selection. The committed
// annotation is returned when one was added.
func (d *DrawInteraction) PointerUp(x, y float64) (*domain.Annotation, error) {
	if d.state != DrawDragging {
		return nil, nil
	}
	d.state = DrawIdle
	d.curX, d.curY = x, y

	if math.Abs(x-d.startX) < clickTolerance && math.Abs(y-d.startY) < clickTolerance {
		d.click(x, y)
		return nil, nil
	}

	v := d.viewport
	ix1, iy1 := domain.ScreenToImage(d.startX, d.startY, v)
	ix2, iy2 := domain.ScreenToImage(x, y, v)
	box, ok := domain.ToNormalized(ix1, iy1, ix2, iy2, v.ImageW, v.ImageH)
	if !ok {
		return nil, nil
	}

	p := d.pm.Current()
	if p == nil || p.Classes.Len() == 0 {
		return nil, nil
	}
	id := p.Classes.Selected()
	name, _ := p.Classes.Name(id)
	ann := domain.NewAnnotation(id, name, box)

	if err := d.pm.EditImage(d.image, func(img *domain.ImageRecord) {
		img.Add(ann)
	}); err != nil {
		return &ann, err
	}
	d.selected = len(d.image.Annotations) - 1
	return &ann, nil
}

func (d *DrawInteraction) click(x, y float64) {
	if !d.viewport.OnImage(x, y) {
		d.selected = -1
		return
	}
	ix, iy := domain.ScreenToImage(x, y, d.viewport)
	d.selected = d.image.HitTest(ix, iy)
}

// Select sets the selected annotation directly (keyboard cycling)
func (d *DrawInteraction) Select(i int) {
	if d.image == nil || i < 0 || i >= len(d.image.Annotations) {
		d.selected = -1
		return
	}
	d.selected = i
}

// DeleteSelected removes the selected annotation and persists the change.
// It reports whether anything was removed.
func (d *DrawInteraction) DeleteSelected() (bool, error) {
	i := d.Selected()
	if i < 0 {
		return false, nil
	}
	removed := false
	err := d.pm.EditImage(d.image, func(img *domain.ImageRecord) {
		removed = img.Remove(i)
	})
	d.selected = -1
	return removed, err
}

// Undo removes the most recently added annotation and persists the change
func (d *DrawInteraction) Undo() (bool, error) {
	if d.image == nil || len(d.image.Annotations) == 0 {
		return false, nil
	}
	removed := false
	err := d.pm.EditImage(d.image, func(img *domain.ImageRecord) {
		removed = img.RemoveLast()
	})
	d.selected = -1
	return removed, err
}

// ClearAll removes every annotation from the image and persists the change
func (d *DrawInteraction) ClearAll() error {
	if d.image == nil {
		return nil
	}
	d.selected = -1
	return d.pm.EditImage(d.image, func(img *domain.ImageRecord) {
		img.Clear()
	})
}
