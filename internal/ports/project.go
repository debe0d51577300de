package ports

import "yololabel/internal/domain"

// ProjectRepository defines the interface for project storage operations
type ProjectRepository interface {
	// Lifecycle
	Exists(projectPath string) bool
	Create(p *domain.Project) error
	Load(projectPath string) (*domain.Project, error)
	Save(p *domain.Project) error
	Delete(projectPath string) error

	// Label files (hot path)
	SaveLabels(labelPath string, anns []domain.Annotation) error
	LoadLabels(labelPath string) ([]domain.Annotation, error)

	// Image files owned by the project
	RemoveImageFiles(p *domain.Project, img *domain.ImageRecord) error

	// Export writes a train/val dataset with a data.yaml descriptor
	Export(p *domain.Project, dir string, valRatio float64) (*domain.ExportSummary, error)

	// Workspace discovery
	ListProjects(workspacePath string) ([]string, error)
}

// WorkspaceStore persists the workspace configuration
type WorkspaceStore interface {
	Load() (*domain.WorkspaceConfig, error)
	Save(cfg *domain.WorkspaceConfig) error
	Path() string
}
