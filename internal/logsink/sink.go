// Package logsink appends job events to a durable log file,
// independent of the in-memory event history shown in the UI.
package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dockling/internal/domain"
	"dockling/internal/jobs"
)

// Sink writes one line per consumed event, in consumption order, to
// an append-only file. A write failure degrades the sink to a no-op
// and reports the degradation exactly once; it never fails the
// caller.
type Sink struct {
	mu        sync.Mutex
	file      *os.File
	degraded  bool
	onDegrade func(error)
}

// New opens (or creates) the log file in append mode. onDegrade is
// invoked once if writing ever starts failing; it may be nil.
func New(path string, onDegrade func(error)) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Sink{file: file, onDegrade: onDegrade}, nil
}

// Consume drains a bus subscription until the channel closes,
// persisting every durable event. Run it on its own goroutine.
func (s *Sink) Consume(events <-chan jobs.Event) {
	for event := range events {
		s.Record(event)
	}
}

// Record persists one event if it is of a durable kind.
func (s *Sink) Record(event jobs.Event) {
	line, ok := formatLine(event)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return
	}
	if _, err := s.file.WriteString(line + "\n"); err != nil {
		s.degraded = true
		if s.onDegrade != nil {
			s.onDegrade(err)
		}
	}
}

// Close flushes and releases the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// formatLine renders a durable event as "timestamp [LEVEL] message".
// Progress and file-started events are display-only and not persisted.
func formatLine(event jobs.Event) (string, bool) {
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	prefix := timestamp.Format(time.RFC3339)

	switch event.Type {
	case jobs.EventTypeFileFinished:
		level, message := describeOutcome(event)
		return fmt.Sprintf("%s [%s] %s", prefix, level, message), true
	case jobs.EventTypeJobFinished:
		message := fmt.Sprintf("job %s %s", event.JobID, event.State)
		if event.Totals != nil {
			message += fmt.Sprintf(": %d success, %d partial, %d failed, %d skipped",
				event.Totals.Success, event.Totals.Partial, event.Totals.Failed, event.Totals.Skipped)
		}
		return fmt.Sprintf("%s [INFO] %s", prefix, message), true
	case jobs.EventTypeLog:
		level := event.Level
		if level == "" {
			level = "INFO"
		}
		return fmt.Sprintf("%s [%s] %s", prefix, level, event.Message), true
	default:
		return "", false
	}
}

// describeOutcome maps a file outcome to a log severity and message.
func describeOutcome(event jobs.Event) (string, string) {
	switch event.Status {
	case domain.FileStatusSuccess:
		return "INFO", fmt.Sprintf("converted %s -> %s", event.Path, event.OutPath)
	case domain.FileStatusPartial:
		return "WARN", fmt.Sprintf("converted with warnings %s -> %s", event.Path, event.OutPath)
	case domain.FileStatusFailed:
		return "ERROR", fmt.Sprintf("failed %s: %s", event.Path, event.Detail)
	default:
		return "WARN", fmt.Sprintf("skipped %s: %s", event.Path, event.Detail)
	}
}
