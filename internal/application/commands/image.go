package commands

import (
	"context"
	"fmt"

	"yololabel/internal/application"
)

// ImportImagesResult contains the per-file outcome of an import
type ImportImagesResult struct {
	Results  []application.ImportResult
	Imported int
	Failed   int
	Message  string
}

// ImportImagesCommand imports image files and directories into the
// current project
type ImportImagesCommand struct {
	pm    *application.ProjectManager
	Paths []string
}

// NewImportImagesCommand creates a new ImportImagesCommand
func NewImportImagesCommand(pm *application.ProjectManager, paths []string) *ImportImagesCommand {
	return &ImportImagesCommand{pm: pm, Paths: paths}
}

// Validate checks if the import operation is valid
func (c *ImportImagesCommand) Validate() error {
	if len(c.Paths) == 0 {
		return &application.ValidationError{Field: "imagePath", Message: "at least one image path is required"}
	}
	for _, p := range c.Paths {
		if err := application.ValidateRequired("imagePath", p); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the import command. Per-file failures are reported in the
// result, not as an error.
func (c *ImportImagesCommand) Execute(ctx context.Context) (*ImportImagesResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	results, err := c.pm.ImportImages(ctx, c.Paths)
	if results == nil && err != nil {
		return nil, err
	}

	res := &ImportImagesResult{Results: results}
	for _, r := range results {
		if r.Err != nil {
			res.Failed++
		} else {
			res.Imported++
		}
	}
	res.Message = fmt.Sprintf("Imported %d images", res.Imported)
	if res.Failed > 0 {
		res.Message += fmt.Sprintf(" (%d failed)", res.Failed)
	}
	return res, err
}

// RemoveImageResult contains the result of removing an image
type RemoveImageResult struct {
	Filename string
	Message  string
}

// RemoveImageCommand removes an image and its label file from the current project
type RemoveImageCommand struct {
	pm       *application.ProjectManager
	Filename string
}

// NewRemoveImageCommand creates a new RemoveImageCommand
func NewRemoveImageCommand(pm *application.ProjectManager, filename string) *RemoveImageCommand {
	return &RemoveImageCommand{pm: pm, Filename: filename}
}

// Validate checks if the remove operation is valid
func (c *RemoveImageCommand) Validate() error {
	return application.ValidateRequired("image", c.Filename)
}

// Execute runs the remove image command
func (c *RemoveImageCommand) Execute(ctx context.Context) (*RemoveImageResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.pm.RemoveImageFromProject(c.Filename); err != nil {
		return nil, fmt.Errorf("failed to remove image: %w", err)
	}
	return &RemoveImageResult{
		Filename: c.Filename,
		Message:  fmt.Sprintf("Removed image: %s", c.Filename),
	}, nil
}
