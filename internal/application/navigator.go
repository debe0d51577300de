package application

import (
	"context"
	"fmt"

	"yololabel/internal/domain"
)

// Navigator is the cursor over the current project's images. Before it
// leaves an image it waits for that image's pending label writes, so fast
// next/previous never loses a save.
type Navigator struct {
	pm      *ProjectManager
	project string
	index   int
}

// NewNavigator creates a navigator with no image open
func NewNavigator(pm *ProjectManager) *Navigator {
	return &Navigator{pm: pm, index: -1}
}

// Len returns the number of images in the current project
func (n *Navigator) Len() int {
	p := n.pm.Current()
	if p == nil {
		return 0
	}
	return len(p.Images)
}

// Index returns the position of the open image, or -1
func (n *Navigator) Index() int {
	n.sync()
	return n.index
}

// Current returns the open image, or nil
func (n *Navigator) Current() *domain.ImageRecord {
	n.sync()
	p := n.pm.Current()
	if p == nil || n.index < 0 {
		return nil
	}
	return p.Images[n.index]
}

// Open makes image i current, filling in unknown dimensions
func (n *Navigator) Open(ctx context.Context, i int) (*domain.ImageRecord, error) {
	n.sync()
	p := n.pm.Current()
	if p == nil {
		return nil, ErrNoProject
	}
	if i < 0 || i >= len(p.Images) {
		return nil, fmt.Errorf("image index %d: %w", i, ErrNotFound)
	}

	if n.index >= 0 && n.index != i {
		if err := n.pm.Flush(ctx); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", p.Images[n.index].Filename, err)
		}
	}

	img := p.Images[i]
	if err := n.pm.EnsureDimensions(img); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", img.Filename, err)
	}
	n.index = i
	return img, nil
}

// OpenFile opens the image with the given filename
func (n *Navigator) OpenFile(ctx context.Context, filename string) (*domain.ImageRecord, error) {
	p := n.pm.Current()
	if p == nil {
		return nil, ErrNoProject
	}
	_, i := p.FindImage(filename)
	if i < 0 {
		return nil, fmt.Errorf("image %s: %w", filename, ErrNotFound)
	}
	return n.Open(ctx, i)
}

// Next opens the following image; at the last image it stays put
func (n *Navigator) Next(ctx context.Context) (*domain.ImageRecord, error) {
	n.sync()
	if n.Len() == 0 {
		return nil, ErrNotFound
	}
	return n.Open(ctx, min(n.index+1, n.Len()-1))
}

// Prev opens the preceding image; at the first image it stays put
func (n *Navigator) Prev(ctx context.Context) (*domain.ImageRecord, error) {
	n.sync()
	if n.Len() == 0 {
		return nil, ErrNotFound
	}
	return n.Open(ctx, max(n.index-1, 0))
}

// sync resets the cursor when a different project was loaded or the
// open image disappeared
func (n *Navigator) sync() {
	p := n.pm.Current()
	if p == nil {
		n.project, n.index = "", -1
		return
	}
	if p.Path != n.project {
		n.project, n.index = p.Path, -1
	}
	if n.index >= len(p.Images) {
		n.index = len(p.Images) - 1
	}
}
