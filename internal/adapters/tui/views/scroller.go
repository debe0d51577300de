package views

import "fmt"

// Scroller tracks a cursor over a list that is taller than the space it
// gets. The window follows the cursor a line at a time; Page jumps by a
// whole window.
type Scroller struct {
	n      int
	height int
	top    int
	cursor int
}

// NewScroller creates a scroller showing height rows at a time
func NewScroller(height int) *Scroller {
	s := &Scroller{}
	s.SetHeight(height)
	return s
}

// SetLen updates the number of rows, keeping the cursor on a valid row
func (s *Scroller) SetLen(n int) {
	s.n = max(n, 0)
	s.cursor = min(s.cursor, max(s.n-1, 0))
	s.follow()
}

// SetHeight changes the number of visible rows
func (s *Scroller) SetHeight(h int) {
	s.height = max(h, 1)
	s.follow()
}

// Cursor returns the selected row
func (s *Scroller) Cursor() int {
	return s.cursor
}

// Move shifts the cursor by delta rows, stopping at either end
func (s *Scroller) Move(delta int) {
	if s.n == 0 {
		return
	}
	s.cursor = min(max(s.cursor+delta, 0), s.n-1)
	s.follow()
}

// Page shifts the cursor by delta windows
func (s *Scroller) Page(delta int) {
	s.Move(delta * s.height)
}

// Window returns the half-open range of visible rows
func (s *Scroller) Window() (start, end int) {
	return s.top, min(s.top+s.height, s.n)
}

// Position describes the window, e.g. "11-20 of 34". It is empty when
// everything fits.
func (s *Scroller) Position() string {
	if s.n <= s.height {
		return ""
	}
	start, end := s.Window()
	return fmt.Sprintf("%d-%d of %d", start+1, end, s.n)
}

func (s *Scroller) follow() {
	if s.cursor < s.top {
		s.top = s.cursor
	}
	if s.cursor >= s.top+s.height {
		s.top = s.cursor - s.height + 1
	}
	// Do not leave blank rows below the last entry
	s.top = max(min(s.top, s.n-s.height), 0)
}
