package domain

import "math"

// DefaultFitMargin leaves a 10% border around an image fitted into a panel
const DefaultFitMargin = 0.9

// truncEpsilon absorbs float noise before integer truncation so that
// values like 20.999999999 land on 21.
const truncEpsilon = 1e-6

// Box is a bounding box in normalized coordinates, all fields in [0,1]
type Box struct {
	XCenter float64 `json:"x_center"`
	YCenter float64 `json:"y_center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Viewport maps viewer-local coordinates onto an image: screen = image*Scale + Offset
type Viewport struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	ImageW  int
	ImageH  int
}

// Valid reports whether the viewport can map points
func (v Viewport) Valid() bool {
	return v.Scale > 0 && v.ImageW > 0 && v.ImageH > 0
}

// ToNormalized converts two pixel corners of a rectangle into a normalized box.
// Corners may be given in any order and are clamped to the image first. The
// second return value is false for degenerate boxes, which must not be committed.
func ToNormalized(x1, y1, x2, y2 float64, imgW, imgH int) (Box, bool) {
	if imgW <= 0 || imgH <= 0 {
		return Box{}, false
	}
	w, h := float64(imgW), float64(imgH)

	x1, x2 = clamp(x1, 0, w), clamp(x2, 0, w)
	y1, y2 = clamp(y1, 0, h), clamp(y2, 0, h)

	left, right := math.Min(x1, x2), math.Max(x1, x2)
	top, bottom := math.Min(y1, y2), math.Max(y1, y2)

	box := Box{
		XCenter: (left + right) / 2 / w,
		YCenter: (top + bottom) / 2 / h,
		Width:   (right - left) / w,
		Height:  (bottom - top) / h,
	}
	if box.Width == 0 || box.Height == 0 {
		return Box{}, false
	}
	return box.Clamped(), true
}

// ToPixelCorners converts a normalized box back to integer pixel corners.
// Extent and center are truncated independently and the corners derived
// from them, so width never drifts from rounding two corners separately.
func ToPixelCorners(b Box, imgW, imgH int) (x1, y1, x2, y2 int) {
	x1, x2 = pixelSpan(b.XCenter, b.Width, imgW)
	y1, y2 = pixelSpan(b.YCenter, b.Height, imgH)
	return x1, y1, x2, y2
}

func pixelSpan(center, extent float64, size int) (lo, hi int) {
	s := float64(size)
	pe := int(extent*s + truncEpsilon)
	pc := int(center*s + truncEpsilon)
	lo = pc - pe/2
	hi = lo + pe
	return lo, hi
}

// ScreenToImage maps a viewer-local point into image pixel space, clamped to the image
func ScreenToImage(px, py float64, v Viewport) (ix, iy float64) {
	if !v.Valid() {
		return 0, 0
	}
	ix = clamp((px-v.OffsetX)/v.Scale, 0, float64(v.ImageW))
	iy = clamp((py-v.OffsetY)/v.Scale, 0, float64(v.ImageH))
	return ix, iy
}

// ImageToScreen maps an image pixel into viewer-local coordinates
func ImageToScreen(ix, iy float64, v Viewport) (px, py float64) {
	return ix*v.Scale + v.OffsetX, iy*v.Scale + v.OffsetY
}

// OnImage reports whether a viewer-local point falls inside the displayed image
func (v Viewport) OnImage(px, py float64) bool {
	if !v.Valid() {
		return false
	}
	ix := (px - v.OffsetX) / v.Scale
	iy := (py - v.OffsetY) / v.Scale
	return ix >= 0 && iy >= 0 && ix <= float64(v.ImageW) && iy <= float64(v.ImageH)
}

// FitScale fits an image into a panel preserving aspect ratio and centers it.
// Callers recompute it whenever the panel is resized or a new image is shown.
func FitScale(panelW, panelH float64, imgW, imgH int, margin float64) Viewport {
	if imgW <= 0 || imgH <= 0 || panelW <= 0 || panelH <= 0 {
		return Viewport{ImageW: imgW, ImageH: imgH}
	}
	if margin <= 0 {
		margin = DefaultFitMargin
	}
	scale := math.Min(panelW/float64(imgW), panelH/float64(imgH)) * margin
	return Viewport{
		Scale:   scale,
		OffsetX: (panelW - float64(imgW)*scale) / 2,
		OffsetY: (panelH - float64(imgH)*scale) / 2,
		ImageW:  imgW,
		ImageH:  imgH,
	}
}

// Clamped returns the box shrunk so that it lies within the unit square
func (b Box) Clamped() Box {
	left := clamp(b.XCenter-b.Width/2, 0, 1)
	right := clamp(b.XCenter+b.Width/2, 0, 1)
	top := clamp(b.YCenter-b.Height/2, 0, 1)
	bottom := clamp(b.YCenter+b.Height/2, 0, 1)
	return Box{
		XCenter: (left + right) / 2,
		YCenter: (top + bottom) / 2,
		Width:   right - left,
		Height:  bottom - top,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
