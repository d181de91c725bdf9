package storage

// cleanup.go — delayed deletion of uploaded files.
//
// Every scheduled deletion is persisted before its timer is armed, so a file
// whose timer is lost to a crash is still picked up by the sweeper on the
// next start. Removal is idempotent: deleting an already-missing file is not
// an error.

import (
	"context"
	"os"
	"time"
)

// ScheduleDelete registers path for removal after the configured delay.
func (s *Store) ScheduleDelete(path string) {
	deleteAt := time.Now().Add(s.delay)
	if _, err := s.db.Exec(
		`INSERT OR REPLACE INTO pending_deletes (path, delete_at) VALUES (?, ?)`,
		path, deleteAt.Unix(),
	); err != nil {
		// The timer below still covers this process's lifetime.
		s.logger.Error("persist delete schedule", "path", path, "error", err)
	}

	s.mu.Lock()
	if prev, ok := s.timers[path]; ok {
		prev.Stop()
	}
	s.timers[path] = time.AfterFunc(s.delay, func() { s.remove(path) })
	s.mu.Unlock()

	s.logger.Debug("file deletion scheduled", "path", path, "delay", s.delay)
}

// remove deletes the file and its registration.
func (s *Store) remove(path string) {
	s.mu.Lock()
	delete(s.timers, path)
	s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("delete scheduled file", "path", path, "error", err)
		return
	}
	if _, err := s.db.Exec(`DELETE FROM pending_deletes WHERE path = ?`, path); err != nil {
		s.logger.Error("clear delete schedule", "path", path, "error", err)
	}
	s.logger.Debug("file deleted", "path", path)
}

// SweepExpired removes every file whose deadline has passed. Returns the
// number of entries processed.
func (s *Store) SweepExpired() int {
	rows, err := s.db.Query(
		`SELECT path FROM pending_deletes WHERE delete_at <= ?`, time.Now().Unix())
	if err != nil {
		s.logger.Error("sweep query", "error", err)
		return 0
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err == nil {
			paths = append(paths, p)
		}
	}
	rows.Close()

	for _, p := range paths {
		s.remove(p)
	}
	if len(paths) > 0 {
		s.logger.Info("swept expired uploads", "count", len(paths))
	}
	return len(paths)
}

// RunSweeper sweeps once immediately and then on every interval tick until
// the context is cancelled. Intended to run in its own goroutine.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	s.SweepExpired()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpired()
		}
	}
}
