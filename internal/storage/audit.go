package storage

// audit.go — conversion event log.
//
// Events are queued on a buffered channel and written by a single goroutine.
// Recording never blocks a request and write failures are logged, never
// propagated.

import "time"

// ConversionEvent describes one conversion attempt.
type ConversionEvent struct {
	Filename  string
	Format    string
	SizeBytes int64
	Duration  time.Duration
	OCRUsed   bool
	Success   bool
	Message   string
}

// RecordConversion queues an event for persistence. Non-blocking; events are
// dropped when the buffer is full.
func (s *Store) RecordConversion(ev ConversionEvent) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("audit buffer full, event dropped", "filename", ev.Filename)
	}
}

func (s *Store) flushEvents() {
	defer close(s.flushDone)
	for ev := range s.events {
		_, err := s.db.Exec(
			`INSERT INTO conversion_events
				(filename, format, size_bytes, duration_ms, ocr_used, success, message, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.Filename, ev.Format, ev.SizeBytes, ev.Duration.Milliseconds(),
			boolToInt(ev.OCRUsed), boolToInt(ev.Success), ev.Message, time.Now().Unix(),
		)
		if err != nil {
			s.logger.Error("record conversion event", "filename", ev.Filename, "error", err)
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
