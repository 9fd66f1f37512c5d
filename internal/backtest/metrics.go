package backtest

import (
	"encoding/json"
	"math"

	"github.com/stockfolio/stockfolio/models"
)

const tradingDaysPerYear = 252

// Summary is the set of performance statistics computed once, after
// the simulation completes. Returns and drawdown are fractions, not
// percentages.
type Summary struct {
	InitialValue     float64 `json:"initial_value"`
	FinalValue       float64 `json:"final_value"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	Volatility       float64 `json:"volatility"`
	TradingDays      int     `json:"trading_days"`
	NumTrades        int     `json:"num_trades"`
}

// summaryJSON mirrors Summary with nullable floats, since
// encoding/json rejects NaN.
type summaryJSON struct {
	InitialValue     float64  `json:"initial_value"`
	FinalValue       float64  `json:"final_value"`
	TotalReturn      *float64 `json:"total_return"`
	AnnualizedReturn *float64 `json:"annualized_return"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
	MaxDrawdown      *float64 `json:"max_drawdown"`
	Volatility       *float64 `json:"volatility"`
	TradingDays      int      `json:"trading_days"`
	NumTrades        int      `json:"num_trades"`
}

// MarshalJSON encodes NaN statistics as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		InitialValue:     s.InitialValue,
		FinalValue:       s.FinalValue,
		TotalReturn:      nullableFloat(s.TotalReturn),
		AnnualizedReturn: nullableFloat(s.AnnualizedReturn),
		SharpeRatio:      nullableFloat(s.SharpeRatio),
		MaxDrawdown:      nullableFloat(s.MaxDrawdown),
		Volatility:       nullableFloat(s.Volatility),
		TradingDays:      s.TradingDays,
		NumTrades:        s.NumTrades,
	})
}

// UnmarshalJSON decodes null statistics back to NaN.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var sj summaryJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	*s = Summary{
		InitialValue:     sj.InitialValue,
		FinalValue:       sj.FinalValue,
		TotalReturn:      floatOrNaN(sj.TotalReturn),
		AnnualizedReturn: floatOrNaN(sj.AnnualizedReturn),
		SharpeRatio:      floatOrNaN(sj.SharpeRatio),
		MaxDrawdown:      floatOrNaN(sj.MaxDrawdown),
		Volatility:       floatOrNaN(sj.Volatility),
		TradingDays:      sj.TradingDays,
		NumTrades:        sj.NumTrades,
	}
	return nil
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Summarize computes summary statistics over an equity curve in a
// single pass. With fewer than two points most statistics are
// undefined and reported as NaN. A zero-volatility curve yields a NaN
// Sharpe ratio rather than an error.
func Summarize(equity []models.EquityPoint, riskFreeRate float64) Summary {
	s := Summary{
		TradingDays:      len(equity),
		SharpeRatio:      math.NaN(),
		Volatility:       math.NaN(),
		AnnualizedReturn: math.NaN(),
		TotalReturn:      math.NaN(),
		MaxDrawdown:      0,
	}
	if len(equity) == 0 {
		return s
	}
	s.InitialValue = equity[0].Value
	s.FinalValue = equity[len(equity)-1].Value
	if len(equity) < 2 {
		return s
	}

	n := len(equity)
	s.TotalReturn = s.FinalValue/s.InitialValue - 1
	s.AnnualizedReturn = math.Pow(s.FinalValue/s.InitialValue, 365/float64(n)) - 1

	dailyRf := riskFreeRate / tradingDaysPerYear
	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		returns = append(returns, equity[i].Value/equity[i-1].Value-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	// Subtracting a constant risk-free rate shifts the mean but not
	// the standard deviation.
	std := sampleStdDev(returns, mean)
	if std > 0 {
		s.SharpeRatio = (mean - dailyRf) / std * math.Sqrt(tradingDaysPerYear)
	}
	s.Volatility = std * math.Sqrt(tradingDaysPerYear)

	runningMax := equity[0].Value
	for _, p := range equity {
		if p.Value > runningMax {
			runningMax = p.Value
		}
		if runningMax > 0 {
			if dd := (p.Value - runningMax) / runningMax; dd < s.MaxDrawdown {
				s.MaxDrawdown = dd
			}
		}
	}

	return s
}

// sampleStdDev is the ddof=1 standard deviation, matching pandas'
// default used by the reference metrics.
func sampleStdDev(returns []float64, mean float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance)
}
