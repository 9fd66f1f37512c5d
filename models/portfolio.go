package models

import "time"

// Vote is a discrete trade opinion contributed by one indicator.
type Vote int

const (
	VoteHold Vote = iota
	VoteBuy
	VoteSell
)

func (v Vote) String() string {
	switch v {
	case VoteBuy:
		return "BUY"
	case VoteSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// IndicatorKind identifies which indicator produced a reading.
type IndicatorKind int

const (
	KindForecast IndicatorKind = iota
	KindBollinger
	KindRSI
	KindTrendFilter
)

func (k IndicatorKind) String() string {
	switch k {
	case KindForecast:
		return "forecast"
	case KindBollinger:
		return "bollinger"
	case KindRSI:
		return "rsi"
	case KindTrendFilter:
		return "trend"
	default:
		return "unknown"
	}
}

// IndicatorReading is one indicator's vote for a ticker on a date.
// Indicators with insufficient history abstain and produce no reading.
type IndicatorReading struct {
	Kind IndicatorKind `json:"kind"`
	Vote Vote          `json:"vote"`
}

// Side is the direction of an executed trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is an immutable record of one executed order.
type Trade struct {
	Date   time.Time `json:"date"`
	Ticker string    `json:"ticker"`
	Side   Side      `json:"side"`
	Shares int64     `json:"shares"`
	Price  float64   `json:"price"`
}

// Position is a held lot for one ticker. A position with zero shares
// never exists; the ledger removes it instead.
type Position struct {
	Ticker   string  `json:"ticker"`
	Shares   int64   `json:"shares"`
	AvgEntry float64 `json:"avg_entry"`
}

// UnrealizedReturn is the fractional gain or loss versus the weighted
// average entry price at the given current price.
func (p Position) UnrealizedReturn(current float64) float64 {
	if p.AvgEntry == 0 {
		return 0
	}
	return (current - p.AvgEntry) / p.AvgEntry
}

// EquityPoint is one daily snapshot of total portfolio value.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
