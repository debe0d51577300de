package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

const schemaVersion = "1"

// Index implements ports.ProjectIndex using SQLite
type Index struct {
	db            *sql.DB
	repo          ports.ProjectRepository
	logger        *slog.Logger
	workspacePath string
	dbPath        string

	// Track bookkeeping, see track.go
	mu      sync.Mutex
	flushMu sync.Mutex
	pending map[string]domain.IndexedProject
	tracked map[string]domain.IndexedProject
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// Ensure Index implements ProjectIndex
var _ ports.ProjectIndex = (*Index)(nil)

// NewIndex creates a new SQLite index. repo is used to read projects
// while syncing.
func NewIndex(repo ports.ProjectRepository, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		repo:    repo,
		logger:  logger,
		pending: make(map[string]domain.IndexedProject),
		tracked: make(map[string]domain.IndexedProject),
	}
}

// Open initializes the index for the given workspace path
func (idx *Index) Open(workspacePath string) error {
	if len(workspacePath) > 0 && workspacePath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		workspacePath = filepath.Join(home, workspacePath[1:])
	}
	if abs, err := filepath.Abs(workspacePath); err == nil {
		workspacePath = abs
	}

	idx.workspacePath = workspacePath
	idx.dbPath = databasePath(workspacePath)

	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", idx.dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	idx.db = db

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS projects (
			path TEXT PRIMARY KEY,
			id TEXT,
			name TEXT NOT NULL,
			image_count INTEGER NOT NULL DEFAULT 0,
			labeled_count INTEGER NOT NULL DEFAULT 0,
			class_count INTEGER NOT NULL DEFAULT 0,
			annotation_count INTEGER NOT NULL DEFAULT 0,
			mtime INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if err := idx.updateMeta(); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	idx.startWriter()
	return nil
}

// Close writes tracked rows that are still pending and closes the database
func (idx *Index) Close() error {
	idx.stopWriter()
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// Path returns the database file
func (idx *Index) Path() string {
	return idx.dbPath
}

// NeedsFullRebuild returns true if the index should be fully rebuilt
func (idx *Index) NeedsFullRebuild() bool {
	var version, workspaceHash, lastSync string

	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'workspace_path_hash'").Scan(&workspaceHash)
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'last_sync_time'").Scan(&lastSync)

	return version != schemaVersion || workspaceHash != hashWorkspacePath(idx.workspacePath) || lastSync == ""
}

// databasePath returns the path for the SQLite database
func databasePath(workspacePath string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "yololabel", hashWorkspacePath(workspacePath)+".db")
}

// hashWorkspacePath returns a short hash of the workspace path
func hashWorkspacePath(workspacePath string) string {
	h := sha256.Sum256([]byte(workspacePath))
	return hex.EncodeToString(h[:8])
}

// updateMeta updates the schema version and workspace path hash
func (idx *Index) updateMeta() error {
	_, err := idx.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?);
		INSERT OR REPLACE INTO meta (key, value) VALUES ('workspace_path_hash', ?);
	`, schemaVersion, hashWorkspacePath(idx.workspacePath))
	return err
}

const projectColumns = `path, id, name, image_count, labeled_count, class_count, annotation_count, mtime`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.IndexedProject, error) {
	var p domain.IndexedProject
	var id sql.NullString
	err := row.Scan(&p.Path, &id, &p.Name, &p.ImageCount, &p.LabeledCount, &p.ClassCount, &p.AnnotationCount, &p.Mtime)
	if err != nil {
		return nil, err
	}
	p.ID = id.String
	return &p, nil
}

// Get retrieves a project by path. It returns nil when the project is not indexed.
func (idx *Index) Get(projectPath string) (*domain.IndexedProject, error) {
	idx.flush()
	p, err := scanProject(idx.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE path = ?`, projectPath))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// List returns every indexed project ordered by name
func (idx *Index) List() ([]domain.IndexedProject, error) {
	idx.flush()
	rows, err := idx.db.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY name COLLATE NOCASE, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.IndexedProject
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// BeginTx starts a new transaction
func (idx *Index) BeginTx() (ports.IndexTx, error) {
	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	return &indexTx{tx: tx}, nil
}

func projectMtime(projectPath string) int64 {
	info, err := os.Stat(filepath.Join(projectPath, domain.ProjectFileName))
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}
