package commands

import (
	"context"
	"fmt"
	"strconv"

	"yololabel/internal/application"
)

// ClassResult contains the result of a class operation
type ClassResult struct {
	ID      int
	Name    string
	Classes []string
	Message string
}

// AddClassCommand adds a class to the current project
type AddClassCommand struct {
	pm   *application.ProjectManager
	Name string
}

// NewAddClassCommand creates a new AddClassCommand
func NewAddClassCommand(pm *application.ProjectManager, name string) *AddClassCommand {
	return &AddClassCommand{pm: pm, Name: name}
}

// Validate checks if the add operation is valid
func (c *AddClassCommand) Validate() error {
	return application.ValidateClassName(c.Name)
}

// Execute runs the add class command
func (c *AddClassCommand) Execute(ctx context.Context) (*ClassResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	before := 0
	if p := c.pm.Current(); p != nil {
		before = p.Classes.Len()
	}
	id, err := c.pm.AddClass(c.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to add class: %w", err)
	}

	msg := fmt.Sprintf("Added class %d: %s", id, c.Name)
	if id < before {
		msg = fmt.Sprintf("Class %s already exists with id %d", c.Name, id)
	}
	return &ClassResult{
		ID:      id,
		Name:    c.Name,
		Classes: c.pm.Current().Classes.Names(),
		Message: msg,
	}, nil
}

// RemoveClassCommand removes a class by id or name. Annotations of that
// class are deleted and higher ids shift down.
type RemoveClassCommand struct {
	pm    *application.ProjectManager
	Class string // id or exact name
}

// NewRemoveClassCommand creates a new RemoveClassCommand
func NewRemoveClassCommand(pm *application.ProjectManager, class string) *RemoveClassCommand {
	return &RemoveClassCommand{pm: pm, Class: class}
}

// Validate checks if the remove operation is valid
func (c *RemoveClassCommand) Validate() error {
	return application.ValidateRequired("className", c.Class)
}

// Execute runs the remove class command
func (c *RemoveClassCommand) Execute(ctx context.Context) (*ClassResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	id, name, err := resolveClass(c.pm, c.Class)
	if err != nil {
		return nil, err
	}
	if err := c.pm.RemoveClass(id); err != nil {
		return nil, fmt.Errorf("failed to remove class: %w", err)
	}
	if err := c.pm.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to rewrite labels: %w", err)
	}

	return &ClassResult{
		ID:      id,
		Name:    name,
		Classes: c.pm.Current().Classes.Names(),
		Message: fmt.Sprintf("Removed class %d: %s", id, name),
	}, nil
}

// RenameClassCommand renames a class in place
type RenameClassCommand struct {
	pm      *application.ProjectManager
	Class   string // id or exact name
	NewName string
}

// NewRenameClassCommand creates a new RenameClassCommand
func NewRenameClassCommand(pm *application.ProjectManager, class, newName string) *RenameClassCommand {
	return &RenameClassCommand{pm: pm, Class: class, NewName: newName}
}

// Validate checks if the rename operation is valid
func (c *RenameClassCommand) Validate() error {
	if err := application.ValidateRequired("className", c.Class); err != nil {
		return err
	}
	return application.ValidateClassName(c.NewName)
}

// Execute runs the rename class command
func (c *RenameClassCommand) Execute(ctx context.Context) (*ClassResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	id, old, err := resolveClass(c.pm, c.Class)
	if err != nil {
		return nil, err
	}
	if err := c.pm.RenameClass(id, c.NewName); err != nil {
		return nil, fmt.Errorf("failed to rename class: %w", err)
	}

	return &ClassResult{
		ID:      id,
		Name:    c.NewName,
		Classes: c.pm.Current().Classes.Names(),
		Message: fmt.Sprintf("Renamed class %d: %s -> %s", id, old, c.NewName),
	}, nil
}

// resolveClass accepts an exact class name or a numeric id
func resolveClass(pm *application.ProjectManager, class string) (int, string, error) {
	p := pm.Current()
	if p == nil {
		return -1, "", application.ErrNoProject
	}
	if id := p.Classes.IndexOf(class); id >= 0 {
		return id, class, nil
	}
	if id, err := strconv.Atoi(class); err == nil {
		if name, ok := p.Classes.Name(id); ok {
			return id, name, nil
		}
	}
	return -1, "", fmt.Errorf("class %q: %w", class, application.ErrNotFound)
}
