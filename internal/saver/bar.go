package saver

import (
	"aggsnap/internal/model"
)

// Bar is the DTO used by the packet savers (CSV/Parquet/JSON).
// Nil pointers are values the provider left out.
type Bar struct {
	Timestamp    *int64   `json:"t" parquet:"t,optional"`
	Open         *float64 `json:"o" parquet:"o,optional"`
	High         *float64 `json:"h" parquet:"h,optional"`
	Low          *float64 `json:"l" parquet:"l,optional"`
	Close        *float64 `json:"c" parquet:"c,optional"`
	Volume       *float64 `json:"v" parquet:"v,optional"`
	VWAP         *float64 `json:"vw" parquet:"vw,optional"`
	Transactions *int64   `json:"n" parquet:"n,optional"`
	OTC          *bool    `json:"otc" parquet:"otc,optional"`
}

// FromRawBars copies provider bars into DTOs.
func FromRawBars(bars []model.RawBar) []Bar {
	out := make([]Bar, len(bars))
	for i, b := range bars {
		out[i] = Bar{
			Timestamp:    b.Timestamp.Ptr(),
			Open:         b.Open.Ptr(),
			High:         b.High.Ptr(),
			Low:          b.Low.Ptr(),
			Close:        b.Close.Ptr(),
			Volume:       b.Volume.Ptr(),
			VWAP:         b.VWAP.Ptr(),
			Transactions: b.Transactions.Ptr(),
			OTC:          b.OTC.Ptr(),
		}
	}
	return out
}
