package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"yololabel/internal/domain"
)

// maxProjectDepth bounds how deep below the workspace a project.json is looked for
const maxProjectDepth = 3

// SyncFull performs a complete rebuild of the index
func (idx *Index) SyncFull() (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	found, err := idx.scan(stats)
	if err != nil {
		return stats, err
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM projects`); err != nil {
		return nil, err
	}
	for path, mtime := range found {
		row, ok := idx.loadRow(path, mtime)
		if !ok {
			continue
		}
		if _, err := tx.Exec(upsertProjectSQL, projectArgs(row)...); err != nil {
			return nil, err
		}
		stats.ProjectsAdded++
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('last_sync_time', ?)`, time.Now().Unix()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// SyncIncremental reloads only projects whose project.json changed since
// they were indexed, and drops rows for projects that disappeared
func (idx *Index) SyncIncremental() (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	existing := make(map[string]int64)
	rows, err := idx.db.Query(`SELECT path, mtime FROM projects`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			rows.Close()
			return nil, err
		}
		existing[path] = mtime
	}
	rows.Close()

	found, err := idx.scan(stats)
	if err != nil {
		return stats, err
	}

	tx, err := idx.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for path, mtime := range found {
		old, known := existing[path]
		if known && old == mtime {
			continue
		}
		row, ok := idx.loadRow(path, mtime)
		if !ok {
			continue
		}
		if err := tx.UpsertProject(row); err != nil {
			return nil, err
		}
		if known {
			stats.ProjectsUpdated++
		} else {
			stats.ProjectsAdded++
		}
	}

	for path := range existing {
		if _, ok := found[path]; !ok {
			if err := tx.DeleteProject(path); err != nil {
				return nil, err
			}
			stats.ProjectsDeleted++
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	idx.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('last_sync_time', ?)`, time.Now().Unix())

	stats.Duration = time.Since(start)
	return stats, nil
}

// scan walks the workspace and returns project roots with their
// project.json mtimes
func (idx *Index) scan(stats *domain.SyncStats) (map[string]int64, error) {
	found := make(map[string]int64)
	root := filepath.Clean(idx.workspacePath)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			// Images and labels never contain nested projects
			if info.Name() == domain.ImagesDirName || info.Name() == domain.LabelsDirName {
				return filepath.SkipDir
			}
			if depth(root, path) > maxProjectDepth {
				return filepath.SkipDir
			}
			return nil
		}

		stats.FilesScanned++
		if info.Name() == domain.ProjectFileName {
			found[filepath.Dir(path)] = info.ModTime().Unix()
		}
		return nil
	})
	return found, err
}

// loadRow reads a project for indexing; unreadable projects are skipped
func (idx *Index) loadRow(path string, mtime int64) (*domain.IndexedProject, bool) {
	p, err := idx.repo.Load(path)
	if err != nil {
		idx.logger.Warn("skipping unreadable project", "path", path, "error", err)
		return nil, false
	}
	return domain.NewIndexedProject(p, mtime), true
}

// upsertProject writes one row outside a caller-managed transaction
func (idx *Index) upsertProject(p *domain.IndexedProject) error {
	_, err := idx.db.Exec(upsertProjectSQL, projectArgs(p)...)
	return err
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
