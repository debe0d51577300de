package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"time"
)

// On-disk layout of a project directory
const (
	ProjectFileName = "project.json"
	ClassesFileName = "classes.txt"
	ImagesDirName   = "images"
	LabelsDirName   = "labels"

	// CreatedDateLayout is the created_date format in project.json
	CreatedDateLayout = "2006-01-02 15:04:05"
)

var projectNameRegex = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)

// ValidProjectName reports whether name is an acceptable project display name
func ValidProjectName(name string) bool {
	return projectNameRegex.MatchString(name)
}

// Project is the aggregate of a class registry and ordered image records
type Project struct {
	ID          string
	Name        string
	Description string
	Created     time.Time
	Path        string
	Classes     *ClassRegistry
	Images      []*ImageRecord

	// LabelErrors lists label files that could not be parsed on load. Those
	// images keep the annotations cached in project.json.
	LabelErrors []LabelError
}

// LabelError is a label file that failed to load
type LabelError struct {
	Filename string
	Err      error
}

func (e LabelError) Error() string {
	return e.Filename + ": " + e.Err.Error()
}

func (e LabelError) Unwrap() error {
	return e.Err
}

// NewProjectID returns the stable id assigned at creation
func NewProjectID(now time.Time) string {
	return fmt.Sprintf("project_%d", now.UnixMilli())
}

// NewProject creates an empty project rooted at path
func NewProject(name, description, path string, now time.Time) *Project {
	return &Project{
		ID:          NewProjectID(now),
		Name:        name,
		Description: description,
		Created:     now.Truncate(time.Second),
		Path:        path,
		Classes:     &ClassRegistry{},
	}
}

// ProjectFile returns the path of project.json
func (p *Project) ProjectFile() string {
	return filepath.Join(p.Path, ProjectFileName)
}

// ClassesFile returns the path of classes.txt
func (p *Project) ClassesFile() string {
	return filepath.Join(p.Path, ClassesFileName)
}

// ImagesDir returns the images directory
func (p *Project) ImagesDir() string {
	return filepath.Join(p.Path, ImagesDirName)
}

// LabelsDir returns the labels directory
func (p *Project) LabelsDir() string {
	return filepath.Join(p.Path, LabelsDirName)
}

// LabelPath returns labels/<stem>.txt for an image
func (p *Project) LabelPath(img *ImageRecord) string {
	return filepath.Join(p.LabelsDir(), img.LabelFilename())
}

// FindImage returns the image with the given filename and its index
func (p *Project) FindImage(filename string) (*ImageRecord, int) {
	for i, img := range p.Images {
		if img.Filename == filename {
			return img, i
		}
	}
	return nil, -1
}

// AddImage appends an image record. Filenames (and therefore label stems)
// must be unique within a project.
func (p *Project) AddImage(img *ImageRecord) error {
	for _, existing := range p.Images {
		if existing.Filename == img.Filename {
			return &ValidationError{Field: "image", Message: fmt.Sprintf("image %s already in project", img.Filename)}
		}
		if existing.Stem() == img.Stem() {
			return &ValidationError{Field: "image", Message: fmt.Sprintf("image %s would share label file with %s", img.Filename, existing.Filename)}
		}
	}
	p.Images = append(p.Images, img)
	return nil
}

// RemoveImage removes the image with the given filename
func (p *Project) RemoveImage(filename string) (*ImageRecord, error) {
	img, i := p.FindImage(filename)
	if img == nil {
		return nil, fmt.Errorf("image %s: %w", filename, ErrNotFound)
	}
	p.Images = slices.Delete(p.Images, i, i+1)
	return img, nil
}

// RemoveClass removes a class and renumbers annotations so that no id
// points at the wrong class: boxes of the removed class are dropped and
// every higher id shifts down by one. It returns the images whose
// annotations changed.
func (p *Project) RemoveClass(id int) ([]*ImageRecord, error) {
	if err := p.Classes.Remove(id); err != nil {
		return nil, err
	}

	var touched []*ImageRecord
	for _, img := range p.Images {
		changed := false
		kept := img.Annotations[:0:0]
		for _, a := range img.Annotations {
			switch {
			case a.ClassID == id:
				changed = true
				continue
			case a.ClassID > id:
				a.ClassID--
				changed = true
			}
			kept = append(kept, a)
		}
		if changed {
			p.ResolveClassNames(kept)
			img.SetAnnotations(kept)
			touched = append(touched, img)
		}
	}
	return touched, nil
}

// RenameClass renames a class and refreshes the cached names of its boxes.
// It returns the images whose annotations changed.
func (p *Project) RenameClass(id int, newName string) ([]*ImageRecord, error) {
	if err := p.Classes.Rename(id, newName); err != nil {
		return nil, err
	}
	name, _ := p.Classes.Name(id)

	var touched []*ImageRecord
	for _, img := range p.Images {
		changed := false
		for i := range img.Annotations {
			if img.Annotations[i].ClassID == id && img.Annotations[i].ClassName != name {
				img.Annotations[i].ClassName = name
				changed = true
			}
		}
		if changed {
			touched = append(touched, img)
		}
	}
	return touched, nil
}

// ResolveClassNames fills cached class names from the registry. Ids outside
// the registry keep whatever name they already carry.
func (p *Project) ResolveClassNames(anns []Annotation) {
	for i := range anns {
		if name, ok := p.Classes.Name(anns[i].ClassID); ok {
			anns[i].ClassName = name
		}
	}
}

// StaleRef points at an annotation whose class id is outside the registry
type StaleRef struct {
	Filename string
	Index    int
	ClassID  int
}

// StaleAnnotations lists annotations whose class id no longer exists.
// They are reported, never repaired.
func (p *Project) StaleAnnotations() []StaleRef {
	var refs []StaleRef
	n := p.Classes.Len()
	for _, img := range p.Images {
		for i, a := range img.Annotations {
			if a.ClassID >= n {
				refs = append(refs, StaleRef{Filename: img.Filename, Index: i, ClassID: a.ClassID})
			}
		}
	}
	return refs
}

// ProjectStats summarizes a project for dashboards and the index
type ProjectStats struct {
	Images      int
	Labeled     int
	Classes     int
	Annotations int
}

// Stats computes the current statistics
func (p *Project) Stats() ProjectStats {
	s := ProjectStats{Images: len(p.Images), Classes: p.Classes.Len()}
	for _, img := range p.Images {
		if img.IsLabeled() {
			s.Labeled++
		}
		s.Annotations += len(img.Annotations)
	}
	return s
}

// Clone returns a copy with its own registry and image slice. Image records
// are shared; they are edited in place by the single active editor.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Classes = p.Classes.Clone()
	cp.Images = slices.Clone(p.Images)
	return &cp
}

// Snapshot returns a deep copy whose image records and annotations are not
// shared with p. It can be read on another goroutine while p is edited.
func (p *Project) Snapshot() *Project {
	cp := p.Clone()
	for i, img := range p.Images {
		c := *img
		c.Annotations = img.Snapshot()
		cp.Images[i] = &c
	}
	cp.LabelErrors = slices.Clone(p.LabelErrors)
	return cp
}
