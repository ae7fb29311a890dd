package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const partitionDateLayout = "2006-01-02"

// Layout maps (ticker, as-of date, attempt) to paths below Root.
type Layout struct {
	Root string
}

// PartitionDir is <root>/<ticker>/asofdate=<YYYY-MM-DD>.
func (l Layout) PartitionDir(ticker string, asOf time.Time) string {
	return filepath.Join(l.Root, ticker, "asofdate="+asOf.Format(partitionDateLayout))
}

// AttemptPath is the file for attempt n inside dir.
func (l Layout) AttemptPath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("market_data_%d.json", n))
}

// NextAttempt counts the entries already in dir and returns that plus one, or 1
// when dir does not exist yet. Two writers racing on the same dir can pick the
// same number; Writer.Write then fails instead of overwriting.
func NextAttempt(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", dir, err)
	}
	return len(entries) + 1, nil
}
