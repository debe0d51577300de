package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"yololabel/internal/application"
	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

// CreateProjectResult contains the result of creating a project
type CreateProjectResult struct {
	Project *domain.Project
	Message string
}

// CreateProjectCommand creates a project and makes it current
type CreateProjectCommand struct {
	pm          *application.ProjectManager
	Name        string
	Description string
	Path        string // defaults to <workspace>/<name>
	Classes     []string
}

// NewCreateProjectCommand creates a new CreateProjectCommand
func NewCreateProjectCommand(pm *application.ProjectManager, name, description, path string) *CreateProjectCommand {
	return &CreateProjectCommand{
		pm:          pm,
		Name:        name,
		Description: description,
		Path:        path,
	}
}

// Validate checks if the create operation is valid
func (c *CreateProjectCommand) Validate() error {
	if err := application.ValidateProjectName(c.Name); err != nil {
		return err
	}
	for _, class := range c.Classes {
		if err := application.ValidateClassName(class); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the create project command
func (c *CreateProjectCommand) Execute(ctx context.Context) (*CreateProjectResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p, err := c.pm.CreateProject(c.Name, c.Description, c.Path)
	if err != nil {
		return nil, err
	}
	for _, class := range c.Classes {
		if _, err := c.pm.AddClass(class); err != nil {
			return nil, fmt.Errorf("failed to add class %q: %w", class, err)
		}
	}

	return &CreateProjectResult{
		Project: c.pm.Current(),
		Message: fmt.Sprintf("Created project: %s at %s", p.Name, p.Path),
	}, nil
}

// OpenProjectResult contains the result of opening a project
type OpenProjectResult struct {
	Project *domain.Project
	Stale       []domain.StaleRef
	LabelErrors []domain.LabelError
	Message     string
}

// OpenProjectCommand loads a project by path, or by name inside the workspace
type OpenProjectCommand struct {
	pm   *application.ProjectManager
	Path string
}

// NewOpenProjectCommand creates a new OpenProjectCommand
func NewOpenProjectCommand(pm *application.ProjectManager, path string) *OpenProjectCommand {
	return &OpenProjectCommand{pm: pm, Path: path}
}

// Validate checks if the open operation is valid
func (c *OpenProjectCommand) Validate() error {
	return application.ValidateRequired("projectPath", c.Path)
}

// Execute runs the open project command
func (c *OpenProjectCommand) Execute(ctx context.Context) (*OpenProjectResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p, err := c.pm.LoadProject(ResolveProjectPath(c.pm, c.Path))
	if err != nil {
		return nil, err
	}

	stats := p.Stats()
	return &OpenProjectResult{
		Project:     p,
		Stale:       p.StaleAnnotations(),
		LabelErrors: p.LabelErrors,
		Message:     fmt.Sprintf("Opened %s: %d images (%d labeled), %d classes", p.Name, stats.Images, stats.Labeled, stats.Classes),
	}, nil
}

// ResolveProjectPath treats a bare name as a directory of the workspace
// when no such relative path exists
func ResolveProjectPath(pm *application.ProjectManager, path string) string {
	if filepath.IsAbs(path) || pm.Workspace() == nil {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if root := pm.Workspace().WorkspacePath(); root != "" {
		return filepath.Join(root, path)
	}
	return path
}

// RenameProjectResult contains the result of renaming a project
type RenameProjectResult struct {
	Path    string
	NewName string
	Message string
}

// RenameProjectCommand changes a project's display name
type RenameProjectCommand struct {
	pm      *application.ProjectManager
	Path    string
	NewName string
}

// NewRenameProjectCommand creates a new RenameProjectCommand
func NewRenameProjectCommand(pm *application.ProjectManager, path, newName string) *RenameProjectCommand {
	return &RenameProjectCommand{pm: pm, Path: path, NewName: newName}
}

// Validate checks if the rename operation is valid
func (c *RenameProjectCommand) Validate() error {
	if err := application.ValidateRequired("projectPath", c.Path); err != nil {
		return err
	}
	return application.ValidateProjectName(c.NewName)
}

// Execute runs the rename project command
func (c *RenameProjectCommand) Execute(ctx context.Context) (*RenameProjectResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	path := ResolveProjectPath(c.pm, c.Path)
	if err := c.pm.RenameProject(path, c.NewName); err != nil {
		return nil, fmt.Errorf("failed to rename project: %w", err)
	}

	return &RenameProjectResult{
		Path:    path,
		NewName: c.NewName,
		Message: fmt.Sprintf("Renamed project at %s to %s", path, c.NewName),
	}, nil
}

// DeleteProjectResult contains the result of deleting a project
type DeleteProjectResult struct {
	Path    string
	Message string
}

// DeleteProjectCommand removes a project directory tree
type DeleteProjectCommand struct {
	pm   *application.ProjectManager
	Path string
}

// NewDeleteProjectCommand creates a new DeleteProjectCommand
func NewDeleteProjectCommand(pm *application.ProjectManager, path string) *DeleteProjectCommand {
	return &DeleteProjectCommand{pm: pm, Path: path}
}

// Validate checks if the delete operation is valid
func (c *DeleteProjectCommand) Validate() error {
	return application.ValidateRequired("projectPath", c.Path)
}

// Execute runs the delete project command
func (c *DeleteProjectCommand) Execute(ctx context.Context) (*DeleteProjectResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	path := ResolveProjectPath(c.pm, c.Path)
	if err := c.pm.DeleteProject(path); err != nil {
		return nil, fmt.Errorf("failed to delete %s: %w", path, err)
	}

	return &DeleteProjectResult{
		Path:    path,
		Message: fmt.Sprintf("Deleted project: %s", path),
	}, nil
}

// ListProjectsCommand lists the projects of a workspace. It reads the
// index when one is attached and scans the workspace otherwise.
type ListProjectsCommand struct {
	repo          ports.ProjectRepository
	index         ports.ProjectIndex
	WorkspacePath string
}

// NewListProjectsCommand creates a new ListProjectsCommand. index may be nil.
func NewListProjectsCommand(repo ports.ProjectRepository, index ports.ProjectIndex, workspacePath string) *ListProjectsCommand {
	return &ListProjectsCommand{repo: repo, index: index, WorkspacePath: workspacePath}
}

// Execute runs the list projects command
func (c *ListProjectsCommand) Execute(ctx context.Context) ([]domain.IndexedProject, error) {
	if c.index != nil {
		return c.index.List()
	}

	paths, err := c.repo.ListProjects(c.WorkspacePath)
	if err != nil {
		return nil, err
	}
	projects := make([]domain.IndexedProject, 0, len(paths))
	for _, path := range paths {
		p, err := c.repo.Load(path)
		if err != nil {
			projects = append(projects, domain.IndexedProject{Path: path, Name: filepath.Base(path)})
			continue
		}
		projects = append(projects, *domain.NewIndexedProject(p, 0))
	}
	return projects, nil
}
