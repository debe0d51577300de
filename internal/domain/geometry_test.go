package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNormalized(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		w, h           int
		want           Box
		wantOK         bool
	}{
		{
			name: "top-left quarter",
			x1:   0, y1: 0, x2: 50, y2: 50,
			w: 100, h: 100,
			want:   Box{XCenter: 0.25, YCenter: 0.25, Width: 0.5, Height: 0.5},
			wantOK: true,
		},
		{
			name: "reversed corners",
			x1:   50, y1: 50, x2: 0, y2: 0,
			w: 100, h: 100,
			want:   Box{XCenter: 0.25, YCenter: 0.25, Width: 0.5, Height: 0.5},
			wantOK: true,
		},
		{
			name: "clamped to image",
			x1:   -20, y1: 50, x2: 250, y2: 150,
			w: 200, h: 100,
			want:   Box{XCenter: 0.5, YCenter: 0.75, Width: 1, Height: 0.5},
			wantOK: true,
		},
		{
			name: "zero width",
			x1:   10, y1: 10, x2: 10, y2: 50,
			w: 100, h: 100,
			wantOK: false,
		},
		{
			name: "entirely outside",
			x1:   120, y1: 10, x2: 150, y2: 50,
			w: 100, h: 100,
			wantOK: false,
		},
		{
			name: "unknown image size",
			x1:   0, y1: 0, x2: 10, y2: 10,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNormalized(tt.x1, tt.y1, tt.x2, tt.y2, tt.w, tt.h)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.want.XCenter, got.XCenter, 1e-9)
			assert.InDelta(t, tt.want.YCenter, got.YCenter, 1e-9)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-9)
		})
	}
}

func TestPixelRoundTrip(t *testing.T) {
	sizes := [][2]int{{100, 100}, {640, 480}, {1920, 1080}, {333, 777}}
	rects := [][4]int{{0, 0, 50, 50}, {10, 20, 31, 45}, {1, 1, 99, 99}, {17, 3, 60, 91}, {0, 0, 100, 100}}

	for _, size := range sizes {
		w, h := size[0], size[1]
		for _, r := range rects {
			x1, y1 := r[0]*w/100, r[1]*h/100
			x2, y2 := r[2]*w/100, r[3]*h/100
			box, ok := ToNormalized(float64(x1), float64(y1), float64(x2), float64(y2), w, h)
			require.True(t, ok)

			gx1, gy1, gx2, gy2 := ToPixelCorners(box, w, h)
			assert.InDelta(t, x1, gx1, 1, "x1 for %v on %dx%d", r, w, h)
			assert.InDelta(t, y1, gy1, 1, "y1 for %v on %dx%d", r, w, h)
			assert.InDelta(t, x2, gx2, 1, "x2 for %v on %dx%d", r, w, h)
			assert.InDelta(t, y2, gy2, 1, "y2 for %v on %dx%d", r, w, h)
		}
	}
}

func TestToPixelCorners_WidthIndependentOfCenter(t *testing.T) {
	box := Box{XCenter: 0.255, YCenter: 0.5, Width: 0.21, Height: 0.2}
	x1, _, x2, _ := ToPixelCorners(box, 100, 100)
	assert.Equal(t, 21, x2-x1)
}

func TestFitScale(t *testing.T) {
	v := FitScale(200, 100, 100, 100, DefaultFitMargin)
	assert.InDelta(t, 0.9, v.Scale, 1e-9)
	assert.InDelta(t, 55, v.OffsetX, 1e-9)
	assert.InDelta(t, 5, v.OffsetY, 1e-9)

	v = FitScale(0, 100, 100, 100, DefaultFitMargin)
	assert.False(t, v.Valid())
}

func TestScreenToImage(t *testing.T) {
	v := FitScale(200, 100, 100, 100, DefaultFitMargin)

	ix, iy := ScreenToImage(55, 5, v)
	assert.InDelta(t, 0, ix, 1e-9)
	assert.InDelta(t, 0, iy, 1e-9)

	ix, iy = ScreenToImage(100, 50, v)
	assert.InDelta(t, 50, ix, 1e-9)
	assert.InDelta(t, 50, iy, 1e-9)

	// Outside the displayed image clamps to its edges
	ix, iy = ScreenToImage(0, 1000, v)
	assert.Equal(t, 0.0, ix)
	assert.Equal(t, 100.0, iy)

	px, py := ImageToScreen(50, 50, v)
	assert.InDelta(t, 100, px, 1e-9)
	assert.InDelta(t, 50, py, 1e-9)
	assert.True(t, v.OnImage(100, 50))
	assert.False(t, v.OnImage(10, 50))
}
