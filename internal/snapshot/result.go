// Package snapshot writes and reads the versioned per-run JSON files under
// <root>/<ticker>/asofdate=<date>/market_data_<attempt>.json.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"aggsnap/internal/frame"
	"aggsnap/internal/model"
)

// StatusSuccess is the only status a written RunResult carries.
const StatusSuccess = "Success"

// RunResult is the envelope persisted for one ticker and one attempt.
type RunResult struct {
	ExecutionTime      float64 `json:"Execution_Time"`      // seconds from process start to write
	ExecutionTimestamp float64 `json:"Execution_Timestamp"` // process start, epoch seconds
	Attempt            int     `json:"Attempt"`
	RecordsProcessed   int     `json:"Records_Processed"`
	Status             string  `json:"Status"`
	Data               string  `json:"Data"` // row-oriented JSON of the bars
}

// NewRunResult wraps a validated frame.
func NewRunResult(f *frame.Frame, start, now time.Time, attempt int) (RunResult, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return RunResult{}, fmt.Errorf("serialize frame: %w", err)
	}
	return RunResult{
		ExecutionTime:      now.Sub(start).Seconds(),
		ExecutionTimestamp: epochSeconds(start),
		Attempt:            attempt,
		RecordsProcessed:   f.Height(),
		Status:             StatusSuccess,
		Data:               string(data),
	}, nil
}

// Bars decodes Data.
func (r RunResult) Bars() ([]model.Bar, error) {
	var bars []model.Bar
	if err := json.Unmarshal([]byte(r.Data), &bars); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return bars, nil
}

// Read parses a snapshot file.
func Read(path string) (RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunResult{}, err
	}
	var r RunResult
	if err := json.Unmarshal(data, &r); err != nil {
		return RunResult{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return r, nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
