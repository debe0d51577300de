package sqlite

import (
	"yololabel/internal/domain"
)

// Track keeps the row of a loaded project current. It has the shape of a
// project manager listener and runs on the caller's goroutine, so it only
// records the row; a background writer upserts it. A row equal to the last
// one tracked for the same path is dropped. nil (no project) is ignored.
func (idx *Index) Track(p *domain.Project) {
	if p == nil || idx.db == nil {
		return
	}
	row := *domain.NewIndexedProject(p, 0)

	idx.mu.Lock()
	if last, ok := idx.tracked[row.Path]; ok && last == row {
		idx.mu.Unlock()
		return
	}
	idx.tracked[row.Path] = row
	idx.pending[row.Path] = row
	idx.mu.Unlock()

	select {
	case idx.wake <- struct{}{}:
	default:
	}
}

// Forget removes a project row, used after a project is deleted
func (idx *Index) Forget(projectPath string) error {
	idx.flushMu.Lock()
	defer idx.flushMu.Unlock()

	idx.mu.Lock()
	delete(idx.pending, projectPath)
	delete(idx.tracked, projectPath)
	idx.mu.Unlock()

	_, err := idx.db.Exec(`DELETE FROM projects WHERE path = ?`, projectPath)
	return err
}

func (idx *Index) startWriter() {
	idx.wake = make(chan struct{}, 1)
	idx.stop = make(chan struct{})
	idx.done = make(chan struct{})
	go idx.writeLoop()
}

func (idx *Index) stopWriter() {
	if idx.stop == nil {
		return
	}
	close(idx.stop)
	<-idx.done
	idx.stop = nil
}

func (idx *Index) writeLoop() {
	defer close(idx.done)
	for {
		select {
		case <-idx.wake:
			idx.flush()
		case <-idx.stop:
			idx.flush()
			return
		}
	}
}

// flush upserts every pending row. Readers call it so they see what was
// tracked before them.
func (idx *Index) flush() {
	idx.flushMu.Lock()
	defer idx.flushMu.Unlock()

	idx.mu.Lock()
	if len(idx.pending) == 0 {
		idx.mu.Unlock()
		return
	}
	rows := idx.pending
	idx.pending = make(map[string]domain.IndexedProject)
	idx.mu.Unlock()

	for _, row := range rows {
		tracked := row
		row.Mtime = projectMtime(row.Path)
		if err := idx.upsertProject(&row); err != nil {
			idx.logger.Warn("failed to index project", "path", row.Path, "error", err)
			// Let the next Track of the same state retry
			idx.mu.Lock()
			if idx.tracked[row.Path] == tracked {
				delete(idx.tracked, row.Path)
			}
			idx.mu.Unlock()
		}
	}
}
