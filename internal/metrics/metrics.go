// Package metrics computes per-symbol daily statistics from stored
// price history.
package metrics

import (
	"math"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

const (
	rollingWindow      = 30
	tradingDaysPerYear = 252
)

// Point is one day of computed statistics for a symbol.
type Point struct {
	Ticker           string
	Date             time.Time
	DailyReturn      float64
	CumulativeReturn float64
	Volatility30D    float64
}

// Compute derives daily return, cumulative return, and annualized
// 30-day rolling volatility for each bar. Bars must be in ascending
// date order. The first day's return is zero; volatility is zero until
// the window holds at least two returns.
func Compute(bars []models.PriceBar) []Point {
	if len(bars) == 0 {
		return nil
	}

	points := make([]Point, 0, len(bars))
	returns := make([]float64, 0, len(bars))
	base := bars[0].Price()

	for i, b := range bars {
		p := Point{Ticker: b.Ticker, Date: b.Date}

		if i > 0 {
			prev := bars[i-1].Price()
			if prev > 0 {
				p.DailyReturn = b.Price()/prev - 1
			}
			returns = append(returns, p.DailyReturn)
		}
		if base > 0 {
			p.CumulativeReturn = b.Price()/base - 1
		}

		window := returns
		if len(window) > rollingWindow {
			window = window[len(window)-rollingWindow:]
		}
		p.Volatility30D = annualizedStdDev(window)

		points = append(points, p)
	}

	return points
}

// RangeStats summarizes a symbol's behavior over a span of points.
type RangeStats struct {
	Ticker           string
	Days             int
	PriceChange      float64
	AvgDailyReturn   float64
	CumulativeReturn float64
	Volatility       float64
}

// Summarize aggregates computed points into range-level statistics.
// PriceChange is the cumulative-return delta between the first and last
// point; Volatility is the annualized standard deviation of the daily
// returns inside the range.
func Summarize(points []Point) RangeStats {
	if len(points) == 0 {
		return RangeStats{}
	}

	first, last := points[0], points[len(points)-1]
	stats := RangeStats{
		Ticker:           last.Ticker,
		Days:             len(points),
		CumulativeReturn: last.CumulativeReturn,
	}

	base := 1 + first.CumulativeReturn
	if base != 0 {
		stats.PriceChange = (1+last.CumulativeReturn)/base - 1
	}

	returns := make([]float64, 0, len(points)-1)
	sum := 0.0
	for _, p := range points[1:] {
		returns = append(returns, p.DailyReturn)
		sum += p.DailyReturn
	}
	if len(returns) > 0 {
		stats.AvgDailyReturn = sum / float64(len(returns))
	}
	stats.Volatility = annualizedStdDev(returns)

	return stats
}

func annualizedStdDev(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}
