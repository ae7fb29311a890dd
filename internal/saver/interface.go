// Package saver archives raw provider packets before transformation.
package saver

import (
	"fmt"
	"strings"

	"aggsnap/internal/model"
)

// PacketSaver is the abstraction for persisting one packet of raw bars.
// The orchestrator depends on this interface; main picks the implementation.
type PacketSaver interface {
	Save(bars []model.RawBar, path string) error
	Extension() string
}

// NewPacketSaver creates implementation by format (csv, parquet, json).
func NewPacketSaver(format string) (PacketSaver, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	case "json":
		return JSONSaver{}, nil
	default:
		return nil, fmt.Errorf("saver: unsupported format %q (use csv, parquet, json)", format)
	}
}
