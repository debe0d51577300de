package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"yololabel/internal/domain"
)

// Repository implements ports.ProjectRepository using the filesystem
type Repository struct{}

// NewRepository creates a new filesystem repository
func NewRepository() *Repository {
	return &Repository{}
}

// ExpandPath expands a leading ~ to the home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return path
}

// projectFile is the on-disk shape of project.json
type projectFile struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	CreatedDate string                `json:"created_date"`
	ProjectPath string                `json:"project_path"`
	Classes     []string              `json:"classes"`
	Images      []*domain.ImageRecord `json:"images"`
}

// Exists reports whether projectPath contains a project.json
func (r *Repository) Exists(projectPath string) bool {
	info, err := os.Stat(filepath.Join(ExpandPath(projectPath), domain.ProjectFileName))
	return err == nil && !info.IsDir()
}

// Create lays out a new project directory and writes its project.json
func (r *Repository) Create(p *domain.Project) error {
	if r.Exists(p.Path) {
		return &domain.ValidationError{
			Field:   "path",
			Message: fmt.Sprintf("a project already exists at %s", p.Path),
		}
	}

	_, statErr := os.Stat(p.Path)
	existed := statErr == nil

	for _, dir := range []string{p.Path, p.ImagesDir(), p.LabelsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &domain.IOError{Op: "create", Path: dir, Err: err}
		}
	}

	// Roll back a directory we created ourselves
	if err := r.Save(p); err != nil {
		if !existed {
			os.RemoveAll(p.Path)
		}
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

// Load reads a project. Label files on disk take precedence over the
// annotations cached in project.json, and classes.txt (when present)
// over the cached class list.
func (r *Repository) Load(projectPath string) (*domain.Project, error) {
	projectPath = ExpandPath(projectPath)
	file := filepath.Join(projectPath, domain.ProjectFileName)

	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, projectPath)
		}
		return nil, &domain.IOError{Op: "read", Path: file, Err: err}
	}

	var pf projectFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProjectCorrupt, file, err)
	}

	p := &domain.Project{
		ID:          pf.ID,
		Name:        pf.Name,
		Description: pf.Description,
		Path:        projectPath,
		Classes:     domain.NewClassRegistry(pf.Classes...),
	}
	if created, err := time.ParseInLocation(domain.CreatedDateLayout, pf.CreatedDate, time.Local); err == nil {
		p.Created = created
	}

	if text, err := os.ReadFile(p.ClassesFile()); err == nil {
		fromFile := &domain.ClassRegistry{}
		fromFile.FromText(string(text))
		if fromFile.Len() > 0 {
			p.Classes = fromFile
		}
	}

	for _, img := range pf.Images {
		if img == nil || img.Filename == "" {
			continue
		}
		r.rebaseImagePath(p, img)

		anns, err := r.LoadLabels(p.LabelPath(img))
		switch {
		case err == nil:
			img.SetAnnotations(anns)
		case errors.Is(err, domain.ErrNotFound):
			img.SetAnnotations(img.Annotations)
		default:
			img.SetAnnotations(img.Annotations)
			p.LabelErrors = append(p.LabelErrors, domain.LabelError{Filename: img.Filename, Err: err})
		}
		p.ResolveClassNames(img.Annotations)
		p.Images = append(p.Images, img)
	}

	return p, nil
}

// rebaseImagePath points an image at its copy under images/ when the
// recorded absolute path no longer exists (project moved or copied).
func (r *Repository) rebaseImagePath(p *domain.Project, img *domain.ImageRecord) {
	if img.Path != "" {
		if _, err := os.Stat(img.Path); err == nil {
			return
		}
	}
	local := filepath.Join(p.ImagesDir(), img.Filename)
	if _, err := os.Stat(local); err == nil || img.Path == "" {
		img.Path = local
	}
}

// Save writes project.json and classes.txt
func (r *Repository) Save(p *domain.Project) error {
	pf := projectFile{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedDate: p.Created.Format(domain.CreatedDateLayout),
		ProjectPath: p.Path,
		Classes:     p.Classes.Names(),
		Images:      make([]*domain.ImageRecord, 0, len(p.Images)),
	}
	if pf.Classes == nil {
		pf.Classes = []string{}
	}
	for _, img := range p.Images {
		cp := *img
		cp.Annotations = img.Snapshot()
		if cp.Annotations == nil {
			cp.Annotations = []domain.Annotation{}
		}
		cp.Labeled = img.IsLabeled()
		pf.Images = append(pf.Images, &cp)
	}

	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := writeFileAtomic(p.ProjectFile(), data); err != nil {
		return err
	}
	return writeFileAtomic(p.ClassesFile(), []byte(p.Classes.ToText()))
}

// Delete removes a project directory tree. The directory must contain a
// project.json so that arbitrary folders are never removed.
func (r *Repository) Delete(projectPath string) error {
	projectPath = ExpandPath(projectPath)
	if !r.Exists(projectPath) {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, projectPath)
	}
	if err := os.RemoveAll(projectPath); err != nil {
		return &domain.IOError{Op: "delete", Path: projectPath, Err: err}
	}
	return nil
}

// SaveLabels writes one image's label file
func (r *Repository) SaveLabels(labelPath string, anns []domain.Annotation) error {
	if err := os.MkdirAll(filepath.Dir(labelPath), 0755); err != nil {
		return &domain.IOError{Op: "create", Path: filepath.Dir(labelPath), Err: err}
	}
	return writeFileAtomic(labelPath, domain.FormatLabelFile(anns))
}

// LoadLabels reads one image's label file. Class names are left empty.
func (r *Repository) LoadLabels(labelPath string) ([]domain.Annotation, error) {
	data, err := os.ReadFile(labelPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("label file %s: %w", labelPath, domain.ErrNotFound)
		}
		return nil, &domain.IOError{Op: "read", Path: labelPath, Err: err}
	}
	anns, err := domain.ParseLabelFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", labelPath, err)
	}
	return anns, nil
}

// RemoveImageFiles deletes an image's label file and, when the image lives
// under the project's images/ directory, the image copy itself.
func (r *Repository) RemoveImageFiles(p *domain.Project, img *domain.ImageRecord) error {
	if err := os.Remove(p.LabelPath(img)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.IOError{Op: "remove", Path: p.LabelPath(img), Err: err}
	}

	rel, err := filepath.Rel(p.ImagesDir(), img.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	if err := os.Remove(img.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.IOError{Op: "remove", Path: img.Path, Err: err}
	}
	return nil
}

// ListProjects returns the directories directly under the workspace that
// contain a project.json, sorted by path
func (r *Repository) ListProjects(workspacePath string) ([]string, error) {
	workspacePath = ExpandPath(workspacePath)
	entries, err := os.ReadDir(workspacePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(workspacePath, entry.Name())
		if r.Exists(path) {
			projects = append(projects, path)
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// writeFileAtomic writes through a temp file in the same directory and
// renames it into place so readers never see a partial file
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &domain.IOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &domain.IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &domain.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return &domain.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &domain.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
