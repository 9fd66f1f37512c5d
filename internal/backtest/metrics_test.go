package backtest

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

func curve(values ...float64) []models.EquityPoint {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.EquityPoint, len(values))
	for i, v := range values {
		out[i] = models.EquityPoint{Date: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestSummarizeMaxDrawdown(t *testing.T) {
	s := Summarize(curve(100000, 110000, 99000), 0.02)

	want := (99000.0 - 110000.0) / 110000.0 // ≈ -10%
	if math.Abs(s.MaxDrawdown-want) > 1e-9 {
		t.Fatalf("max drawdown: got %f, want %f", s.MaxDrawdown, want)
	}
}

func TestSummarizeReturns(t *testing.T) {
	s := Summarize(curve(100000, 101000, 102010), 0.02)

	if math.Abs(s.TotalReturn-0.0201) > 1e-9 {
		t.Fatalf("total return: got %f", s.TotalReturn)
	}
	wantAnnual := math.Pow(1.0201, 365.0/3.0) - 1
	if math.Abs(s.AnnualizedReturn-wantAnnual) > 1e-9 {
		t.Fatalf("annualized return: got %f, want %f", s.AnnualizedReturn, wantAnnual)
	}
	if s.TradingDays != 3 {
		t.Fatalf("trading days: got %d", s.TradingDays)
	}
}

func TestSummarizeZeroVolatilitySharpeIsNaN(t *testing.T) {
	// Identical daily returns: stddev 0, Sharpe undefined.
	s := Summarize(curve(100000, 150000, 225000, 337500), 0.02)
	if !math.IsNaN(s.SharpeRatio) {
		t.Fatalf("zero-volatility Sharpe must be NaN, got %f", s.SharpeRatio)
	}
	if math.Abs(s.Volatility) > 1e-12 {
		t.Fatalf("volatility should be zero, got %f", s.Volatility)
	}
}

func TestSummarizeSharpeAndVolatility(t *testing.T) {
	s := Summarize(curve(100000, 102000, 100980, 103999.4), 0.02)

	// Daily returns: +2%, -1%, +2.99%... recompute independently.
	returns := []float64{
		102000.0/100000.0 - 1,
		100980.0/102000.0 - 1,
		103999.4/100980.0 - 1,
	}
	mean := (returns[0] + returns[1] + returns[2]) / 3
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= 2
	std := math.Sqrt(variance)

	wantSharpe := (mean - 0.02/252) / std * math.Sqrt(252)
	if math.Abs(s.SharpeRatio-wantSharpe) > 1e-9 {
		t.Fatalf("sharpe: got %f, want %f", s.SharpeRatio, wantSharpe)
	}
	wantVol := std * math.Sqrt(252)
	if math.Abs(s.Volatility-wantVol) > 1e-9 {
		t.Fatalf("volatility: got %f, want %f", s.Volatility, wantVol)
	}
}

func TestSummarizeDegenerateCurves(t *testing.T) {
	s := Summarize(nil, 0.02)
	if s.TradingDays != 0 || !math.IsNaN(s.TotalReturn) {
		t.Fatalf("empty curve should report NaN stats, got %+v", s)
	}

	s = Summarize(curve(100000), 0.02)
	if s.InitialValue != 100000 || s.FinalValue != 100000 {
		t.Fatalf("single-point curve values: %+v", s)
	}
	if !math.IsNaN(s.SharpeRatio) || !math.IsNaN(s.AnnualizedReturn) {
		t.Fatalf("single-point curve should report NaN stats")
	}
}

func TestSummaryJSONHandlesNaN(t *testing.T) {
	s := Summarize(curve(100000), 0.02) // all stats NaN

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal summary with NaN stats: %v", err)
	}

	var back Summary
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if !math.IsNaN(back.SharpeRatio) {
		t.Fatalf("NaN sharpe should survive the round trip, got %f", back.SharpeRatio)
	}
	if back.InitialValue != 100000 {
		t.Fatalf("initial value lost: %f", back.InitialValue)
	}
}

func TestSummarizeNeverPositiveDrawdown(t *testing.T) {
	s := Summarize(curve(100000, 105000, 110000), 0.02)
	if s.MaxDrawdown != 0 {
		t.Fatalf("monotone rising curve has zero drawdown, got %f", s.MaxDrawdown)
	}
}
