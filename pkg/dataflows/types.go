package dataflows

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockfolio/stockfolio/config"
	"github.com/stockfolio/stockfolio/models"
)

// Config is an alias for the main application config
type Config = config.Config

// MarketData represents one day of stock price data as delivered by a
// data source. Prices stay decimal until they cross into the
// simulation, which works in float64.
type MarketData struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	AdjClose  decimal.Decimal `json:"adj_close"`
	Volume    int64           `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// ToPriceBar converts a data-source row into the simulation's bar type.
func (md *MarketData) ToPriceBar() models.PriceBar {
	return models.PriceBar{
		Ticker:   md.Symbol,
		Date:     md.Date,
		Open:     md.Open.InexactFloat64(),
		High:     md.High.InexactFloat64(),
		Low:      md.Low.InexactFloat64(),
		Close:    md.Close.InexactFloat64(),
		AdjClose: md.AdjClose.InexactFloat64(),
		Volume:   md.Volume,
	}
}

// ToPriceBars converts and sorts a slice of market data rows into bars
// in ascending date order.
func ToPriceBars(data []*MarketData) []models.PriceBar {
	bars := make([]models.PriceBar, 0, len(data))
	for _, md := range data {
		bars = append(bars, md.ToPriceBar())
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}
