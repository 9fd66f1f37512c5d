package indicators

import (
	"math"

	"github.com/stockfolio/stockfolio/models"
)

const (
	// BollingerWindow is the number of trailing closes in the band.
	BollingerWindow = 20
	// BollingerWidth is the band width in standard deviations.
	BollingerWidth = 2.0
	// RSIPeriod is the number of daily percentage changes averaged.
	RSIPeriod = 14
	// TrendWindow is the moving-average length of the trend filter.
	TrendWindow = 5

	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// Bollinger votes on the current price against a mean ± 2σ envelope over
// the trailing BollingerWindow closes. The window must end at the
// simulated date; closes dated after it are a look-ahead bug in the
// caller. Abstains (ok=false) with fewer than BollingerWindow closes.
func Bollinger(closes []float64, price float64) (models.IndicatorReading, bool) {
	if len(closes) < BollingerWindow {
		return models.IndicatorReading{}, false
	}
	window := closes[len(closes)-BollingerWindow:]

	mean := 0.0
	for _, c := range window {
		mean += c
	}
	mean /= float64(len(window))

	// Sample standard deviation, matching pandas' default ddof=1.
	variance := 0.0
	for _, c := range window {
		d := c - mean
		variance += d * d
	}
	variance /= float64(len(window) - 1)
	sigma := math.Sqrt(variance)

	upper := mean + BollingerWidth*sigma
	lower := mean - BollingerWidth*sigma

	reading := models.IndicatorReading{Kind: models.KindBollinger, Vote: models.VoteHold}
	switch {
	case price <= lower:
		reading.Vote = models.VoteBuy
	case price >= upper:
		reading.Vote = models.VoteSell
	}
	return reading, true
}

// RSI votes from the Relative Strength Index over the last RSIPeriod
// daily percentage changes. avgGain averages only the positive changes
// and avgLoss only the magnitudes of negative ones. A window with no
// losses votes HOLD rather than dividing by zero. Abstains without at
// least RSIPeriod+1 closes (RSIPeriod changes).
func RSI(closes []float64) (models.IndicatorReading, bool) {
	if len(closes) < RSIPeriod+1 {
		return models.IndicatorReading{}, false
	}
	window := closes[len(closes)-(RSIPeriod+1):]

	var gainSum, lossSum float64
	var gains, losses int
	for i := 1; i < len(window); i++ {
		prev := window[i-1]
		if prev == 0 {
			continue
		}
		change := (window[i] - prev) / prev
		if change > 0 {
			gainSum += change
			gains++
		} else if change < 0 {
			lossSum += -change
			losses++
		}
	}

	reading := models.IndicatorReading{Kind: models.KindRSI, Vote: models.VoteHold}
	if losses == 0 || lossSum == 0 {
		// No losses in the window: treated as HOLD, not RSI=100 SELL.
		return reading, true
	}

	avgGain := 0.0
	if gains > 0 {
		avgGain = gainSum / float64(gains)
	}
	avgLoss := lossSum / float64(losses)

	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)

	switch {
	case rsi < rsiOversold:
		reading.Vote = models.VoteBuy
	case rsi > rsiOverbought:
		reading.Vote = models.VoteSell
	}
	return reading, true
}

// ForecastVote converts a forecast delta into a vote using the given
// epsilon threshold. A missing forecast is a HOLD vote, not an error.
func ForecastVote(forecast models.ForecastPoint, hasForecast bool, current, epsilon float64) models.IndicatorReading {
	reading := models.IndicatorReading{Kind: models.KindForecast, Vote: models.VoteHold}
	if !hasForecast || current <= 0 {
		return reading
	}
	delta := forecast.Delta(current)
	switch {
	case delta > epsilon:
		reading.Vote = models.VoteBuy
	case delta < -epsilon:
		reading.Vote = models.VoteSell
	}
	return reading
}

// TrendUp reports whether the 5-day moving average is above the 5-day
// moving average ending one day earlier. Used as a gating condition,
// not an independent vote. With fewer than TrendWindow+1 closes the
// trend is unknown and reported as up, matching the reference default.
func TrendUp(closes []float64) bool {
	if len(closes) < TrendWindow+1 {
		return true
	}
	now := mean(closes[len(closes)-TrendWindow:])
	prev := mean(closes[len(closes)-TrendWindow-1 : len(closes)-1])
	return now > prev
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
