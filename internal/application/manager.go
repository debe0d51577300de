package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

// importWorkers bounds concurrent image copies and conversions
const importWorkers = 4

// ProjectState is the state of the project manager
type ProjectState int

const (
	NoProject ProjectState = iota
	ProjectLoaded
)

func (s ProjectState) String() string {
	if s == ProjectLoaded {
		return "ProjectLoaded"
	}
	return "NoProject"
}

// Listener is notified after every change of the current project. A nil
// project means no project is loaded.
type Listener func(p *domain.Project)

type listenerEntry struct {
	id int
	fn Listener
}

// ProjectManager owns the current project. Structural changes copy the
// project, apply the change and swap the copy in; annotation edits happen
// in place under the manager's lock.
type ProjectManager struct {
	repo      ports.ProjectRepository
	images    ports.ImageProcessor
	workspace *WorkspaceManager
	logger    *slog.Logger
	now       func() time.Time

	current      atomic.Pointer[domain.Project]
	mu           sync.Mutex
	writes       *SaveQueue
	onWriteError func(path string, err error)

	lmu       sync.Mutex
	listeners []listenerEntry
	nextID    int
}

// Option configures a ProjectManager
type Option func(*ProjectManager)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *ProjectManager) {
		m.logger = l
	}
}

// WithWorkspace attaches the workspace manager that tracks recency
func WithWorkspace(w *WorkspaceManager) Option {
	return func(m *ProjectManager) {
		m.workspace = w
	}
}

// WithClock overrides time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(m *ProjectManager) {
		m.now = now
	}
}

// WithWriteErrorHandler registers a callback for label writes that failed
// after their retry
func WithWriteErrorHandler(fn func(path string, err error)) Option {
	return func(m *ProjectManager) {
		m.onWriteError = fn
	}
}

// NewProjectManager creates a manager in the NoProject state
func NewProjectManager(repo ports.ProjectRepository, images ports.ImageProcessor, opts ...Option) *ProjectManager {
	m := &ProjectManager{
		repo:   repo,
		images: images,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.writes = NewSaveQueue(repo.SaveLabels, m.logger, m.onWriteError)
	return m
}

// State reports whether a project is loaded
func (m *ProjectManager) State() ProjectState {
	if m.current.Load() == nil {
		return NoProject
	}
	return ProjectLoaded
}

// Current returns the current project or nil
func (m *ProjectManager) Current() *domain.Project {
	return m.current.Load()
}

// Workspace returns the attached workspace manager, if any
func (m *ProjectManager) Workspace() *WorkspaceManager {
	return m.workspace
}

// Subscribe registers a listener and returns a function that removes it.
// Listeners run synchronously, in registration order.
func (m *ProjectManager) Subscribe(fn Listener) func() {
	m.lmu.Lock()
	defer m.lmu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		m.lmu.Lock()
		defer m.lmu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *ProjectManager) notify() {
	m.lmu.Lock()
	ls := make([]listenerEntry, len(m.listeners))
	copy(ls, m.listeners)
	m.lmu.Unlock()

	p := m.current.Load()
	for _, l := range ls {
		l.fn(p)
	}
}

func (m *ProjectManager) requireProject() (*domain.Project, error) {
	p := m.current.Load()
	if p == nil {
		return nil, ErrNoProject
	}
	return p, nil
}

// mutate applies fn to a copy of the current project, swaps the copy in and
// persists project.json. The swap happens even when the write fails so
// that in-memory work is kept; the write error is returned.
func (m *ProjectManager) mutate(fn func(p *domain.Project) error) error {
	m.mu.Lock()
	cur := m.current.Load()
	if cur == nil {
		m.mu.Unlock()
		return ErrNoProject
	}

	next := cur.Clone()
	if err := fn(next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.current.Store(next)
	saveErr := m.repo.Save(next)
	m.mu.Unlock()

	m.notify()
	if saveErr != nil {
		return fmt.Errorf("failed to save project: %w", saveErr)
	}
	return nil
}

// CreateProject creates a project at path (or <workspace>/<name> when path
// is empty) and makes it current
func (m *ProjectManager) CreateProject(name, description, path string) (*domain.Project, error) {
	if err := ValidateProjectName(name); err != nil {
		return nil, err
	}
	if path == "" {
		if m.workspace == nil || m.workspace.WorkspacePath() == "" {
			return nil, &ValidationError{Field: "projectPath", Message: "project path is required"}
		}
		path = filepath.Join(m.workspace.WorkspacePath(), name)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	p := domain.NewProject(name, description, path, m.now())
	if err := m.repo.Create(p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	m.logger.Info("project created", "name", name, "path", path)

	if err := m.SetCurrentProject(p); err != nil {
		return p, err
	}
	return p, nil
}

// LoadProject reads a project from disk and makes it current
func (m *ProjectManager) LoadProject(path string) (*domain.Project, error) {
	if err := ValidateRequired("projectPath", path); err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	p, err := m.repo.Load(path)
	if err != nil {
		return nil, err
	}
	if stale := p.StaleAnnotations(); len(stale) > 0 {
		m.logger.Warn("annotations reference unknown classes", "project", p.Name, "count", len(stale))
	}
	for _, le := range p.LabelErrors {
		m.logger.Warn("label file unreadable, using cached annotations", "image", le.Filename, "error", le.Err)
	}
	m.logger.Info("project loaded", "name", p.Name, "path", p.Path, "images", len(p.Images))

	if err := m.SetCurrentProject(p); err != nil {
		return p, err
	}
	return p, nil
}

// SetCurrentProject replaces the current project and records it as
// recently opened. Pending writes for the previous project are flushed
// first.
func (m *ProjectManager) SetCurrentProject(p *domain.Project) error {
	if err := m.writes.Flush(context.Background()); err != nil {
		m.logger.Error("pending label writes failed", "error", err)
	}

	m.mu.Lock()
	m.current.Store(p)
	m.mu.Unlock()

	var recentErr error
	if p != nil && m.workspace != nil {
		recentErr = m.workspace.AddRecent(p.Name, p.Path)
	}
	m.notify()
	return recentErr
}

// RenameProject changes a project's display name. The directory keeps its name.
func (m *ProjectManager) RenameProject(path, newName string) error {
	if err := ValidateProjectName(newName); err != nil {
		return err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if cur := m.current.Load(); cur != nil && cur.Path == path {
		if err := m.mutate(func(p *domain.Project) error {
			p.Name = newName
			return nil
		}); err != nil {
			return err
		}
	} else {
		p, err := m.repo.Load(path)
		if err != nil {
			return err
		}
		p.Name = newName
		if err := m.repo.Save(p); err != nil {
			return fmt.Errorf("failed to save project: %w", err)
		}
	}

	if m.workspace != nil {
		if err := m.workspace.RenameRecent(path, newName); err != nil {
			return err
		}
	}
	m.logger.Info("project renamed", "path", path, "name", newName)
	return nil
}

// DeleteProject removes a project directory and its recency entry. If it
// is the current project the manager returns to NoProject.
func (m *ProjectManager) DeleteProject(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	cur := m.current.Load()
	isCurrent := cur != nil && cur.Path == path
	if isCurrent {
		if err := m.writes.Flush(context.Background()); err != nil {
			m.logger.Warn("pending label writes failed before delete", "error", err)
		}
	}

	if err := m.repo.Delete(path); err != nil {
		return err
	}
	m.logger.Info("project deleted", "path", path)

	var recentErr error
	if m.workspace != nil {
		recentErr = m.workspace.RemoveRecent(path)
	}
	if isCurrent {
		m.mu.Lock()
		m.current.Store(nil)
		m.mu.Unlock()
		m.notify()
	}
	return recentErr
}

// AddClass adds a class and returns its id. Adding an existing name
// returns the existing id.
func (m *ProjectManager) AddClass(name string) (int, error) {
	if err := ValidateClassName(name); err != nil {
		return -1, err
	}
	id := -1
	err := m.mutate(func(p *domain.Project) error {
		var err error
		id, err = p.Classes.Add(name)
		return err
	})
	return id, err
}

// RemoveClass removes a class, renumbers the remaining annotations and
// rewrites every label file that changed
func (m *ProjectManager) RemoveClass(id int) error {
	return m.mutate(func(p *domain.Project) error {
		touched, err := p.RemoveClass(id)
		if err != nil {
			return err
		}
		for _, img := range touched {
			if err := m.writes.Enqueue(p.LabelPath(img), img.Snapshot()); err != nil {
				return err
			}
		}
		return nil
	})
}

// RenameClass renames a class in place; ids are unchanged
func (m *ProjectManager) RenameClass(id int, newName string) error {
	if err := ValidateClassName(newName); err != nil {
		return err
	}
	return m.mutate(func(p *domain.Project) error {
		_, err := p.RenameClass(id, newName)
		return err
	})
}

// SelectClass sets the class used for new boxes
func (m *ProjectManager) SelectClass(id int) error {
	m.mu.Lock()
	cur := m.current.Load()
	if cur == nil {
		m.mu.Unlock()
		return ErrNoProject
	}
	next := cur.Clone()
	if err := next.Classes.Select(id); err != nil {
		m.mu.Unlock()
		return err
	}
	m.current.Store(next)
	m.mu.Unlock()

	m.notify()
	return nil
}

// AddImageToProject imports one image file into images/ and appends it
func (m *ProjectManager) AddImageToProject(ctx context.Context, src string) (*domain.ImageRecord, error) {
	results, err := m.ImportImages(ctx, []string{src})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &ValidationError{Field: "imagePath", Message: fmt.Sprintf("%s is not an image", src)}
	}
	return results[0].Image, results[0].Err
}

// ImportImages imports files and directories (one level) into the current
// project. Files are copied or converted concurrently; a failure only
// affects its own entry. Successes are appended in input order and the
// project is saved and listeners notified once.
func (m *ProjectManager) ImportImages(ctx context.Context, paths []string) ([]ImportResult, error) {
	cur, err := m.requireProject()
	if err != nil {
		return nil, err
	}

	sources := m.expandSources(paths)
	results := make([]ImportResult, len(sources))
	format := m.imageFormat()

	// Reject label-file collisions before anything is copied
	stems := make(map[string]bool, len(cur.Images))
	for _, img := range cur.Images {
		stems[img.Stem()] = true
	}
	for i, src := range sources {
		results[i].Source = src
		stem := stemOf(src)
		if stems[stem] {
			results[i].Err = &ValidationError{Field: "image", Message: fmt.Sprintf("an image named %s is already in the project", stem)}
			continue
		}
		stems[stem] = true
	}

	var g errgroup.Group
	g.SetLimit(importWorkers)
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		g.Go(func() error {
			results[i].Image, results[i].Err = m.importOne(ctx, cur, results[i].Source, format)
			return nil
		})
	}
	_ = g.Wait()

	imported := 0
	mutErr := m.mutate(func(p *domain.Project) error {
		for i := range results {
			if results[i].Err != nil {
				continue
			}
			if err := p.AddImage(results[i].Image); err != nil {
				results[i].Err = err
				results[i].Image = nil
				continue
			}
			imported++
		}
		return nil
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			m.logger.Warn("image import failed", "source", r.Source, "error", r.Err)
		}
	}
	m.logger.Info("images imported", "imported", imported, "failed", failed)
	return results, mutErr
}

func (m *ProjectManager) importOne(ctx context.Context, p *domain.Project, src, format string) (*domain.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst, err := m.images.Import(src, p.ImagesDir(), format)
	if err != nil {
		return nil, err
	}
	w, h, err := m.images.Dimensions(dst)
	if err != nil {
		return nil, err
	}
	return domain.NewImageRecord(dst, w, h), nil
}

func (m *ProjectManager) expandSources(paths []string) []string {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			out = append(out, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			out = append(out, path)
			continue
		}
		var files []string
		for _, e := range entries {
			full := filepath.Join(path, e.Name())
			if !e.IsDir() && m.images.IsImage(full) {
				files = append(files, full)
			}
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out
}

func (m *ProjectManager) imageFormat() string {
	if m.workspace == nil {
		return "png"
	}
	if f := m.workspace.Config().Settings.DefaultImageFormat; f != "" {
		return f
	}
	return "png"
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// RemoveImageFromProject removes an image, its label file and, when it was
// copied into images/, the image file
func (m *ProjectManager) RemoveImageFromProject(filename string) error {
	if _, err := m.requireProject(); err != nil {
		return err
	}
	if err := m.writes.Flush(context.Background()); err != nil {
		m.logger.Warn("pending label writes failed", "error", err)
	}

	return m.mutate(func(p *domain.Project) error {
		img, err := p.RemoveImage(filename)
		if err != nil {
			return err
		}
		return m.repo.RemoveImageFiles(p, img)
	})
}

// EditImage applies fn to an image of the current project and schedules a
// write of its label file. An image that is not part of the current project
// is rejected with ErrInvalidState.
func (m *ProjectManager) EditImage(img *domain.ImageRecord, fn func(*domain.ImageRecord)) error {
	m.mu.Lock()
	p, err := m.ownerOf(img)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	fn(img)
	err = m.writes.Enqueue(p.LabelPath(img), img.Snapshot())
	m.mu.Unlock()

	m.notify()
	return err
}

// ownerOf returns the current project when img is one of its records.
// Callers hold m.mu.
func (m *ProjectManager) ownerOf(img *domain.ImageRecord) (*domain.Project, error) {
	p := m.current.Load()
	if p == nil {
		return nil, ErrNoProject
	}
	if img == nil {
		return nil, fmt.Errorf("no image: %w", ErrInvalidState)
	}
	if found, _ := p.FindImage(img.Filename); found != img {
		return nil, fmt.Errorf("image %s is not part of project %s: %w", img.Filename, p.Name, ErrInvalidState)
	}
	return p, nil
}

// SaveImageAnnotations schedules a write of one image's label file. It
// returns without waiting for the disk.
func (m *ProjectManager) SaveImageAnnotations(img *domain.ImageRecord) error {
	m.mu.Lock()
	p, err := m.ownerOf(img)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	err = m.writes.Enqueue(p.LabelPath(img), img.Snapshot())
	m.mu.Unlock()
	return err
}

// ReloadImageLabels replaces an image's annotations with its label file,
// after the file was edited outside the manager. A missing file clears them.
func (m *ProjectManager) ReloadImageLabels(ctx context.Context, img *domain.ImageRecord) error {
	p, err := m.requireProject()
	if err != nil {
		return err
	}
	if err := m.writes.Flush(ctx); err != nil {
		return err
	}

	anns, err := m.repo.LoadLabels(p.LabelPath(img))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to reload %s: %w", img.LabelFilename(), err)
	}
	p.ResolveClassNames(anns)

	m.mu.Lock()
	img.SetAnnotations(anns)
	m.mu.Unlock()

	if stale := p.StaleAnnotations(); len(stale) > 0 {
		m.logger.Warn("label file references unknown classes", "image", img.Filename, "count", len(stale))
	}
	m.notify()
	return nil
}

// EnsureDimensions fills an image's unknown width and height from the file
// and persists project.json when they changed
func (m *ProjectManager) EnsureDimensions(img *domain.ImageRecord) error {
	if img.HasDimensions() {
		return nil
	}
	w, h, err := m.images.Dimensions(img.Path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	img.Width, img.Height = w, h
	m.mu.Unlock()
	return m.SaveProject()
}

// SaveProject writes project.json and classes.txt
func (m *ProjectManager) SaveProject() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.current.Load()
	if p == nil {
		return ErrNoProject
	}
	if err := m.repo.Save(p); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// ExportDataset writes a train/val dataset. An empty dir exports to
// <project>/export.
func (m *ProjectManager) ExportDataset(ctx context.Context, dir string, valRatio float64) (*domain.ExportSummary, error) {
	p, err := m.requireProject()
	if err != nil {
		return nil, err
	}
	if err := ValidateValRatio(valRatio); err != nil {
		return nil, err
	}
	if err := m.Flush(ctx); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = filepath.Join(p.Path, "export")
	}

	m.mu.Lock()
	snap := p.Snapshot()
	m.mu.Unlock()

	summary, err := m.repo.Export(snap, dir, valRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to export dataset: %w", err)
	}
	m.logger.Info("dataset exported", "dir", summary.Dir, "train", summary.Train, "val", summary.Val)
	return summary, nil
}

// Flush waits for all scheduled label writes and reports failures
func (m *ProjectManager) Flush(ctx context.Context) error {
	return m.writes.Flush(ctx)
}

// Close drains pending writes and stops the writer. The manager must not
// be used afterwards.
func (m *ProjectManager) Close() error {
	return m.writes.Close()
}
