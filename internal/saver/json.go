package saver

import (
	"encoding/json"
	"os"

	"aggsnap/internal/model"
)

// JSONSaver writes a packet as an indented JSON array in the provider's key names.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(bars []model.RawBar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromRawBars(bars)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
