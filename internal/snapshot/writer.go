package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"aggsnap/internal/frame"
)

// WriteError is an I/O failure while persisting a snapshot. It is not retried.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write snapshot %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer persists RunResults. Now defaults to time.Now.
type Writer struct {
	Now    func() time.Time
	Logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{Now: time.Now, Logger: logger}
}

// Write wraps f into a RunResult and creates path, including missing parent
// directories. An existing file at path is never replaced.
func (w *Writer) Write(f *frame.Frame, start time.Time, attempt int, path string) (RunResult, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result, err := NewRunResult(f, start, now(), attempt)
	if err != nil {
		return RunResult{}, &WriteError{Path: path, Err: err}
	}
	body, err := json.Marshal(result)
	if err != nil {
		return RunResult{}, &WriteError{Path: path, Err: err}
	}

	logger.Info("writing result to new json file", "path", path, "attempt", attempt, "records", result.RecordsProcessed)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return RunResult{}, &WriteError{Path: path, Err: err}
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return RunResult{}, &WriteError{Path: path, Err: err}
	}
	if _, err := file.Write(body); err != nil {
		file.Close()
		os.Remove(path)
		return RunResult{}, &WriteError{Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return RunResult{}, &WriteError{Path: path, Err: err}
	}
	return result, nil
}
