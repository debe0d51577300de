package domain

import (
	"path/filepath"
	"strings"
)

// ImageRecord holds an image's metadata and its annotation store.
// Labeled is a cache of len(Annotations) > 0, refreshed by every mutator.
type ImageRecord struct {
	Filename    string       `json:"filename"`
	Path        string       `json:"path"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Annotations []Annotation `json:"annotations"`
	Labeled     bool         `json:"labeled"`
}

// NewImageRecord creates a record for an image file. Width and height may
// be zero and are filled in lazily when the image is first opened.
func NewImageRecord(path string, width, height int) *ImageRecord {
	return &ImageRecord{
		Filename: filepath.Base(path),
		Path:     path,
		Width:    width,
		Height:   height,
	}
}

// Stem returns the filename without its extension
func (r *ImageRecord) Stem() string {
	return strings.TrimSuffix(r.Filename, filepath.Ext(r.Filename))
}

// LabelFilename returns the name of this image's label file
func (r *ImageRecord) LabelFilename() string {
	return r.Stem() + ".txt"
}

// HasDimensions reports whether width and height are known
func (r *ImageRecord) HasDimensions() bool {
	return r.Width > 0 && r.Height > 0
}

// Add appends an annotation
func (r *ImageRecord) Add(a Annotation) {
	r.Annotations = append(r.Annotations, a)
	r.refresh()
}

// RemoveLast drops the most recently added annotation. It reports whether
// anything was removed.
func (r *ImageRecord) RemoveLast() bool {
	if len(r.Annotations) == 0 {
		return false
	}
	r.Annotations = r.Annotations[:len(r.Annotations)-1]
	r.refresh()
	return true
}

// Remove deletes the annotation at index i
func (r *ImageRecord) Remove(i int) bool {
	if i < 0 || i >= len(r.Annotations) {
		return false
	}
	r.Annotations = append(r.Annotations[:i], r.Annotations[i+1:]...)
	r.refresh()
	return true
}

// Clear removes every annotation
func (r *ImageRecord) Clear() {
	r.Annotations = nil
	r.refresh()
}

// SetAnnotations replaces the store wholesale
func (r *ImageRecord) SetAnnotations(anns []Annotation) {
	r.Annotations = anns
	r.refresh()
}

// Snapshot returns a copy of the annotations safe to hand to another goroutine
func (r *ImageRecord) Snapshot() []Annotation {
	if len(r.Annotations) == 0 {
		return nil
	}
	out := make([]Annotation, len(r.Annotations))
	copy(out, r.Annotations)
	return out
}

// IsLabeled derives the labeled flag from the annotations
func (r *ImageRecord) IsLabeled() bool {
	return len(r.Annotations) > 0
}

func (r *ImageRecord) refresh() {
	r.Labeled = len(r.Annotations) > 0
}

// HitTest returns the index of the topmost annotation whose pixel rectangle
// contains the image-space point, or -1. Later annotations are drawn on top.
func (r *ImageRecord) HitTest(ix, iy float64) int {
	if !r.HasDimensions() {
		return -1
	}
	for i := len(r.Annotations) - 1; i >= 0; i-- {
		x1, y1, x2, y2 := ToPixelCorners(r.Annotations[i].Box, r.Width, r.Height)
		if ix >= float64(x1) && ix <= float64(x2) && iy >= float64(y1) && iy <= float64(y2) {
			return i
		}
	}
	return -1
}
