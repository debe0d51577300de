package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageRecord_LabeledTracksAnnotations(t *testing.T) {
	img := NewImageRecord("/data/images/cat.jpg", 100, 100)
	assert.Equal(t, "cat.jpg", img.Filename)
	assert.Equal(t, "cat.txt", img.LabelFilename())
	assert.False(t, img.Labeled)

	img.Add(NewAnnotation(0, "cat", Box{XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.2}))
	img.Add(NewAnnotation(0, "cat", Box{XCenter: 0.2, YCenter: 0.2, Width: 0.1, Height: 0.1}))
	assert.True(t, img.Labeled)

	assert.True(t, img.RemoveLast())
	assert.True(t, img.Labeled)
	assert.True(t, img.Remove(0))
	assert.False(t, img.Labeled)
	assert.False(t, img.RemoveLast())
	assert.False(t, img.Remove(3))
}

func TestImageRecord_ClearIdempotent(t *testing.T) {
	img := NewImageRecord("a.png", 10, 10)
	img.Add(NewAnnotation(0, "x", Box{XCenter: 0.5, YCenter: 0.5, Width: 0.5, Height: 0.5}))

	for i := 0; i < 2; i++ {
		img.Clear()
		assert.Empty(t, img.Annotations)
		assert.False(t, img.Labeled)
		assert.False(t, img.IsLabeled())
	}
}

func TestImageRecord_HitTest(t *testing.T) {
	img := NewImageRecord("a.png", 100, 100)
	img.Add(NewAnnotation(0, "big", Box{XCenter: 0.5, YCenter: 0.5, Width: 0.8, Height: 0.8}))
	img.Add(NewAnnotation(1, "small", Box{XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.2}))

	assert.Equal(t, 1, img.HitTest(50, 50), "topmost box wins")
	assert.Equal(t, 0, img.HitTest(15, 15))
	assert.Equal(t, -1, img.HitTest(5, 5))

	unknown := NewImageRecord("b.png", 0, 0)
	assert.Equal(t, -1, unknown.HitTest(1, 1))
}

func TestImageRecord_SnapshotIsIndependent(t *testing.T) {
	img := NewImageRecord("a.png", 10, 10)
	img.Add(NewAnnotation(0, "x", Box{XCenter: 0.5, YCenter: 0.5, Width: 0.5, Height: 0.5}))

	snap := img.Snapshot()
	img.Annotations[0].ClassID = 9
	assert.Equal(t, 0, snap[0].ClassID)
}
