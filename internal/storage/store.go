// Package storage persists uploaded files under generated names and cleans
// them up after a configurable delay. Scheduled deletions and conversion
// audit events are recorded in a SQLite database so that files scheduled
// before a restart are still removed.
package storage

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pending_deletes (
	path TEXT PRIMARY KEY,
	delete_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pending_deletes_at ON pending_deletes(delete_at);

CREATE TABLE IF NOT EXISTS conversion_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	format TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	ocr_used INTEGER NOT NULL,
	success INTEGER NOT NULL,
	message TEXT,
	created_at INTEGER NOT NULL
);
`

// Store owns the upload directory and its cleanup state.
type Store struct {
	db        *sql.DB
	uploadDir string
	delay     time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer

	events    chan ConversionEvent
	flushDone chan struct{}
	closeOnce sync.Once
}

// Open initializes the database and the upload directory. dbPath may be
// ":memory:" for tests.
func Open(dbPath, uploadDir string, delay time.Duration, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{
		db:        db,
		uploadDir: uploadDir,
		delay:     delay,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
		events:    make(chan ConversionEvent, 256),
		flushDone: make(chan struct{}),
	}
	go s.flushEvents()
	return s, nil
}

// Save writes the reader's content to a uniquely named file in the upload
// directory. Only the lowercased extension of the original filename is kept.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.uploadDir, uuid.NewString()+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

// Close stops pending timers, drains the audit buffer, and closes the
// database. Files still scheduled for deletion stay registered in the
// database and are removed by the sweeper after the next start.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		for _, t := range s.timers {
			t.Stop()
		}
		s.timers = make(map[string]*time.Timer)
		s.mu.Unlock()

		close(s.events)
		<-s.flushDone
	})
	return s.db.Close()
}
