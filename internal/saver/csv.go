package saver

import (
	"encoding/csv"
	"os"
	"strconv"

	"aggsnap/internal/model"
)

// CSVSaver writes a packet as CSV (header: t,o,h,l,c,v,vw,n,otc). Nulls are empty cells.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(bars []model.RawBar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	if err := w.Write([]string{"t", "o", "h", "l", "c", "v", "vw", "n", "otc"}); err != nil {
		return err
	}
	for _, b := range FromRawBars(bars) {
		if err := w.Write([]string{
			intStr(b.Timestamp),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
			floatStr(b.VWAP),
			intStr(b.Transactions),
			boolStr(b.OTC),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func floatStr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func intStr(i *int64) string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(*i, 10)
}

func boolStr(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
