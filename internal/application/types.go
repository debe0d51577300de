package application

import "yololabel/internal/domain"

// Re-export domain types for use by adapters
type (
	Project         = domain.Project
	ImageRecord     = domain.ImageRecord
	Annotation      = domain.Annotation
	Box             = domain.Box
	Viewport        = domain.Viewport
	ClassRegistry   = domain.ClassRegistry
	WorkspaceConfig = domain.WorkspaceConfig
	RecentProject   = domain.RecentProject
	Settings        = domain.Settings
	ExportSummary   = domain.ExportSummary
	ProjectStats    = domain.ProjectStats
	IndexedProject  = domain.IndexedProject
	StaleRef        = domain.StaleRef
	LabelError      = domain.LabelError
)

// ImportResult reports the outcome for one source file of a bulk import
type ImportResult struct {
	Source string
	Image  *domain.ImageRecord
	Err    error
}

// DefaultValRatio is the validation share used by exports when none is given
const DefaultValRatio = 0.2
