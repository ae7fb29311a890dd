package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Column names of a bar collection, in the order the provider reports them.
const (
	ColOpen         = "open"
	ColHigh         = "high"
	ColLow          = "low"
	ColClose        = "close"
	ColVolume       = "volume"
	ColVWAP         = "vwap"
	ColTimestamp    = "timestamp"
	ColTransactions = "transactions"
	ColOTC          = "otc"
	ColMarketPhase  = "market_phase"
)

// RawBar is one aggregate bar as returned by the provider, before transformation.
// Fields are nullable so a value the provider left out reaches validation as null
// instead of a silent zero.
type RawBar struct {
	Open         null.Float `json:"o"`
	High         null.Float `json:"h"`
	Low          null.Float `json:"l"`
	Close        null.Float `json:"c"`
	Volume       null.Float `json:"v"`
	VWAP         null.Float `json:"vw"` // Volume weighted average price
	Timestamp    null.Int   `json:"t"`  // Unix timestamp in milliseconds
	Transactions null.Int   `json:"n"`  // Number of transactions
	OTC          null.Bool  `json:"otc"`
}

// Phase is the market-phase tag derived from price and volume momentum.
type Phase string

const (
	PhaseNeutral Phase = "Neutral"
	PhaseBull    Phase = "Bull"
	PhaseBear    Phase = "Bear"
)

// Phases returns the allowed market_phase values.
func Phases() []string {
	return []string{string(PhaseNeutral), string(PhaseBull), string(PhaseBear)}
}

// Bar is one validated output row, as read back from a snapshot file.
type Bar struct {
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       float64   `json:"volume"`
	VWAP         float64   `json:"vwap"`
	Timestamp    time.Time `json:"timestamp"`
	Transactions int64     `json:"transactions"`
	OTC          null.Bool `json:"otc"`
	MarketPhase  Phase     `json:"market_phase"`
}
