// Package tickers parses and normalizes ticker lists.
package tickers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Parse reads a JSON array of ticker symbols, e.g. `["AAPL","MSFT"]`.
func Parse(s string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, fmt.Errorf("parse tickers %q: %w", s, err)
	}
	return Normalize(list), nil
}

// LoadFile reads a list of tickers from a file.
// Supported formats:
//   - .txt  : one ticker per line, '#' lines are treated as comments
//   - .json : JSON array of strings
func LoadFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}

	var list []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &list); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case ".txt":
		list = parseText(string(content))
	default:
		return nil, fmt.Errorf("unsupported ticker file extension %q (use .txt or .json)", filepath.Ext(path))
	}

	list = Normalize(list)
	slog.Info("loaded tickers from file", "count", len(list), "path", path)
	return list, nil
}

// ErrUnsafeSymbol marks a symbol that cannot be used as a directory name.
var ErrUnsafeSymbol = errors.New("unsafe ticker symbol")

// Check rejects symbols that would escape a data directory when joined into a
// path: path separators, "." and "..". Share classes such as BRK.B pass.
func Check(symbol string) error {
	if symbol == "." || strings.Contains(symbol, "..") || strings.ContainsAny(symbol, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnsafeSymbol, symbol)
	}
	return nil
}

// Normalize trims and upper-cases each symbol, dropping empties and duplicates.
// First occurrence order is kept.
func Normalize(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, t := range list {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func parseText(s string) []string {
	var list []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			list = append(list, line)
		}
	}
	return list
}
