package domain

import "time"

// IndexedProject is a cached catalog row for a project in the workspace
type IndexedProject struct {
	Path            string // Project root (primary key)
	ID              string
	Name            string
	ImageCount      int
	LabeledCount    int
	ClassCount      int
	AnnotationCount int
	Mtime           int64 // project.json mtime, for incremental sync
}

// NewIndexedProject builds a catalog row from a loaded project
func NewIndexedProject(p *Project, mtime int64) *IndexedProject {
	s := p.Stats()
	return &IndexedProject{
		Path:            p.Path,
		ID:              p.ID,
		Name:            p.Name,
		ImageCount:      s.Images,
		LabeledCount:    s.Labeled,
		ClassCount:      s.Classes,
		AnnotationCount: s.Annotations,
		Mtime:           mtime,
	}
}

// SyncStats holds statistics from an index sync
type SyncStats struct {
	ProjectsAdded   int
	ProjectsUpdated int
	ProjectsDeleted int
	FilesScanned    int
	Duration        time.Duration
}
