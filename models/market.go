package models

import "time"

// PriceBar is one trading day of OHLCV data for a single ticker.
// Bars are produced by a price history provider in ascending date order.
type PriceBar struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Price returns the price used for simulation and valuation:
// adjusted close when available, raw close otherwise.
func (b PriceBar) Price() float64 {
	if b.AdjClose > 0 {
		return b.AdjClose
	}
	return b.Close
}

// ForecastPoint is a model prediction of the next close for a ticker.
type ForecastPoint struct {
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"date"`
	PredictedClose float64   `json:"predicted_close"`
}

// Delta returns the predicted change relative to the given current price.
func (f ForecastPoint) Delta(current float64) float64 {
	if current == 0 {
		return 0
	}
	return (f.PredictedClose - current) / current
}

// DateKey is the canonical string form used for date-indexed lookups.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
