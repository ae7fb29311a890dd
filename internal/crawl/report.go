package crawl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	successReport = ".lastrun.success.json"
	failedReport  = ".lastrun.failed.json"
)

type failedEntry struct {
	Ticker    string `json:"ticker"`
	DateRange string `json:"date_range"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason"`
}

func failedEntries(sum Summary) []failedEntry {
	var out []failedEntry
	for _, r := range sum.Results {
		if !r.Ok() {
			out = append(out, failedEntry{Ticker: r.Ticker, Kind: r.Kind, Reason: r.Err.Error()})
		}
	}
	return out
}

// writeRunReport replaces both report files so they always describe the last run.
func writeRunReport(logger *slog.Logger, dir string, job Job, sum Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	successList := []string{}
	for _, r := range sum.Results {
		if r.Ok() {
			successList = appendSuccess(successList, r.Ticker)
		}
	}
	failedList := failedEntries(sum)
	if failedList == nil {
		failedList = []failedEntry{}
	}
	for i := range failedList {
		failedList[i].DateRange = job.request(failedList[i].Ticker).DateRange()
	}

	if err := writeJSON(filepath.Join(dir, successReport), successList); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, failedReport), failedList); err != nil {
		return err
	}
	logger.Info("run report saved", "dir", dir, "success", len(successList), "failed", len(failedList))
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func appendSuccess(list []string, ticker string) []string {
	for _, t := range list {
		if t == ticker {
			return list
		}
	}
	return append(list, ticker)
}

func joinFailedReasons(failedList []failedEntry) string {
	if len(failedList) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range failedList {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Ticker)
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failedList) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failedList)-5))
			break
		}
	}
	return b.String()
}
