package saver

import (
	"github.com/parquet-go/parquet-go"

	"aggsnap/internal/model"
)

// ParquetSaver writes a packet as a Parquet file with optional columns.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(bars []model.RawBar, path string) error {
	return parquet.WriteFile(path, FromRawBars(bars))
}
