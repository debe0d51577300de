package sqlite

import (
	"database/sql"

	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

const upsertProjectSQL = `
	INSERT OR REPLACE INTO projects (` + projectColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// indexTx implements ports.IndexTx
type indexTx struct {
	tx *sql.Tx
}

// Ensure indexTx implements IndexTx
var _ ports.IndexTx = (*indexTx)(nil)

// UpsertProject inserts or updates a project row
func (t *indexTx) UpsertProject(p *domain.IndexedProject) error {
	_, err := t.tx.Exec(upsertProjectSQL, projectArgs(p)...)
	return err
}

// DeleteProject removes a project row by path
func (t *indexTx) DeleteProject(projectPath string) error {
	_, err := t.tx.Exec(`DELETE FROM projects WHERE path = ?`, projectPath)
	return err
}

// Commit commits the transaction
func (t *indexTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *indexTx) Rollback() error {
	return t.tx.Rollback()
}

func projectArgs(p *domain.IndexedProject) []any {
	return []any{p.Path, nullString(p.ID), p.Name, p.ImageCount, p.LabeledCount, p.ClassCount, p.AnnotationCount, p.Mtime}
}

// nullString returns nil for empty strings (for nullable columns)
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
