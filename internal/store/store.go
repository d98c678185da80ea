// Package store persists praxis state in SQLite: ingested documents and
// their chunk embeddings, chat sessions, extracted user preferences,
// workflow checkpoints, and the task list served by the demo MCP server.
//
// Vector search uses the sqlite-vec extension (vec0 virtual table) when the
// driver has it; otherwise it falls back to a brute-force cosine scan over
// the chunks table. Both paths return identically shaped hits.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"praxis/internal/logging"
)

// driverName is overridden by the sqlite_vec build, which registers the
// extension with the mattn cgo driver instead.
var driverName = "sqlite"

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	hasVec bool
}

// Open initializes the database at path, creating directories and schema
// as needed. Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite is not safe for concurrent writers on one connection
	// pool default; serialize access at the database/sql level.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	s.hasVec = s.detectVecExtension()
	if s.hasVec {
		if err := s.initVecTable(); err != nil {
			logging.Get(logging.CategoryStore).Warnw("vec table init failed, using brute force", "err", err)
			s.hasVec = false
		}
	}
	logging.Get(logging.CategoryStore).Infow("store opened", "path", path, "vec", s.hasVec)
	return s, nil
}

// HasVec reports whether sqlite-vec ANN search is active.
func (s *Store) HasVec() bool { return s.hasVec }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL UNIQUE,
			content_hash TEXT NOT NULL,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id TEXT PRIMARY KEY,
			next_node TEXT NOT NULL,
			state_json TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// detectVecExtension probes for sqlite-vec by creating a throwaway vec0
// virtual table.
func (s *Store) detectVecExtension() bool {
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"); err != nil {
		return false
	}
	_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
	return true
}

func (s *Store) initVecTable() error {
	_, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
		chunk_id INTEGER PRIMARY KEY,
		embedding float[768]
	)`)
	return err
}
