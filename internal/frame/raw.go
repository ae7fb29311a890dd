package frame

import (
	"github.com/guregu/null/v6"

	"aggsnap/internal/model"
)

// FromRawBars lays provider bars out as columns. timestamp stays Int64 epoch
// milliseconds; converting it is the transformer's job.
func FromRawBars(bars []model.RawBar) *Frame {
	n := len(bars)
	open := make([]null.Float, n)
	high := make([]null.Float, n)
	low := make([]null.Float, n)
	closes := make([]null.Float, n)
	volume := make([]null.Float, n)
	vwap := make([]null.Float, n)
	ts := make([]null.Int, n)
	txns := make([]null.Int, n)
	otc := make([]null.Bool, n)
	for i, b := range bars {
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		volume[i] = b.Volume
		vwap[i] = b.VWAP
		ts[i] = b.Timestamp
		txns[i] = b.Transactions
		otc[i] = b.OTC
	}

	f, err := New(
		NewFloat64(model.ColOpen, open),
		NewFloat64(model.ColHigh, high),
		NewFloat64(model.ColLow, low),
		NewFloat64(model.ColClose, closes),
		NewFloat64(model.ColVolume, volume),
		NewFloat64(model.ColVWAP, vwap),
		NewInt64(model.ColTimestamp, ts),
		NewInt64(model.ColTransactions, txns),
		NewBool(model.ColOTC, otc),
	)
	if err != nil {
		// names are distinct constants and lengths are equal by construction
		panic(err)
	}
	return f
}
