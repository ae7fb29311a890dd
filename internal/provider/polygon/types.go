package polygon

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/guregu/null/v6"

	"aggsnap/internal/model"
)

// BarRaw is one result of the aggregates endpoint. Pointer fields stay nil when
// the key is absent; Transactions uses FlexibleInt64 since it sometimes arrives
// as a float.
type BarRaw struct {
	Timestamp    *int64         `json:"t"` // Unix timestamp in milliseconds
	Open         *float64       `json:"o"`
	High         *float64       `json:"h"`
	Low          *float64       `json:"l"`
	Close        *float64       `json:"c"`
	Volume       *float64       `json:"v"`
	VWAP         *float64       `json:"vw"`
	Transactions *FlexibleInt64 `json:"n"`
	OTC          *bool          `json:"otc"`
}

// ToRawBar converts BarRaw to model.RawBar, keeping absent fields null.
func (br BarRaw) ToRawBar() model.RawBar {
	var txns null.Int
	if br.Transactions != nil {
		txns = null.IntFrom(br.Transactions.Int64())
	}
	return model.RawBar{
		Open:         null.FloatFromPtr(br.Open),
		High:         null.FloatFromPtr(br.High),
		Low:          null.FloatFromPtr(br.Low),
		Close:        null.FloatFromPtr(br.Close),
		Volume:       null.FloatFromPtr(br.Volume),
		VWAP:         null.FloatFromPtr(br.VWAP),
		Timestamp:    null.IntFromPtr(br.Timestamp),
		Transactions: txns,
		OTC:          null.BoolFromPtr(br.OTC),
	}
}

// AggregatesResponse is Polygon API response with next_url
type AggregatesResponse struct {
	Ticker       string   `json:"ticker"`
	QueryCount   int      `json:"queryCount"`
	ResultsCount int      `json:"resultsCount"`
	Adjusted     bool     `json:"adjusted"`
	Results      []BarRaw `json:"results"`
	Status       string   `json:"status"`
	RequestID    string   `json:"request_id"`
	Count        int      `json:"count"`
	NextURL      string   `json:"next_url,omitempty"`
}

// FlexibleInt64 parses int, float (scientific notation) or a quoted number to int64
type FlexibleInt64 int64

// UnmarshalJSON parses int or float
func (f *FlexibleInt64) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexibleInt64(int64(val))
		return nil
	}

	var floatVal float64
	if err := json.Unmarshal(data, &floatVal); err == nil {
		*f = FlexibleInt64(int64(floatVal))
		return nil
	}

	return fmt.Errorf("cannot parse as int64: %s", string(data))
}

// Int64 returns int64 value
func (f FlexibleInt64) Int64() int64 {
	return int64(f)
}
