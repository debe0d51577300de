package commands

import (
	"context"
	"fmt"

	"yololabel/internal/application"
	"yololabel/internal/domain"
)

// AnnotateResult contains the result of annotating an image
type AnnotateResult struct {
	Image      string
	Annotation domain.Annotation
	Line       string
	Message    string
}

// AnnotateCommand adds a box given in image pixel corners to a named image
type AnnotateCommand struct {
	pm             *application.ProjectManager
	Image          string
	Class          string // id or name; empty uses the selected class
	X1, Y1, X2, Y2 float64
}

// NewAnnotateCommand creates a new AnnotateCommand
func NewAnnotateCommand(pm *application.ProjectManager, image, class string, x1, y1, x2, y2 float64) *AnnotateCommand {
	return &AnnotateCommand{pm: pm, Image: image, Class: class, X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Validate checks if the annotate operation is valid
func (c *AnnotateCommand) Validate() error {
	if err := application.ValidateRequired("image", c.Image); err != nil {
		return err
	}
	if c.X1 == c.X2 || c.Y1 == c.Y2 {
		return &application.ValidationError{Field: "box", Message: "box has zero width or height"}
	}
	return nil
}

// Execute runs the annotate command and waits for the label file write
func (c *AnnotateCommand) Execute(ctx context.Context) (*AnnotateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := c.pm.Current()
	if p == nil {
		return nil, application.ErrNoProject
	}
	img, _ := p.FindImage(c.Image)
	if img == nil {
		return nil, fmt.Errorf("image %s: %w", c.Image, application.ErrNotFound)
	}
	if err := c.pm.EnsureDimensions(img); err != nil {
		return nil, err
	}

	id := p.Classes.Selected()
	name, ok := p.Classes.Name(id)
	if c.Class != "" {
		var err error
		if id, name, err = resolveClass(c.pm, c.Class); err != nil {
			return nil, err
		}
	} else if !ok {
		return nil, &application.ValidationError{Field: "class", Message: "project has no classes"}
	}

	box, ok := domain.ToNormalized(c.X1, c.Y1, c.X2, c.Y2, img.Width, img.Height)
	if !ok {
		return nil, &application.ValidationError{Field: "box", Message: "box is empty after clamping to the image"}
	}
	ann := domain.NewAnnotation(id, name, box)

	if err := c.pm.EditImage(img, func(r *domain.ImageRecord) { r.Add(ann) }); err != nil {
		return nil, err
	}
	if err := c.pm.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to write labels: %w", err)
	}

	return &AnnotateResult{
		Image:      img.Filename,
		Annotation: ann,
		Line:       ann.FormatLine(),
		Message:    fmt.Sprintf("Added %s box to %s", name, img.Filename),
	}, nil
}

// ClearLabelsCommand removes every annotation of a named image
type ClearLabelsCommand struct {
	pm    *application.ProjectManager
	Image string
}

// NewClearLabelsCommand creates a new ClearLabelsCommand
func NewClearLabelsCommand(pm *application.ProjectManager, image string) *ClearLabelsCommand {
	return &ClearLabelsCommand{pm: pm, Image: image}
}

// Execute runs the clear command
func (c *ClearLabelsCommand) Execute(ctx context.Context) (string, error) {
	if err := application.ValidateRequired("image", c.Image); err != nil {
		return "", err
	}
	p := c.pm.Current()
	if p == nil {
		return "", application.ErrNoProject
	}
	img, _ := p.FindImage(c.Image)
	if img == nil {
		return "", fmt.Errorf("image %s: %w", c.Image, application.ErrNotFound)
	}

	n := len(img.Annotations)
	if err := c.pm.EditImage(img, func(r *domain.ImageRecord) { r.Clear() }); err != nil {
		return "", err
	}
	if err := c.pm.Flush(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Cleared %d annotations from %s", n, img.Filename), nil
}
