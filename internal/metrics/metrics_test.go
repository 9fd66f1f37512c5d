package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

func series(prices ...float64) []models.PriceBar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(prices))
	for i, p := range prices {
		bars[i] = models.PriceBar{
			Ticker: "AAPL", Date: start.AddDate(0, 0, i),
			Close: p, AdjClose: p,
		}
	}
	return bars
}

func TestComputeReturns(t *testing.T) {
	points := Compute(series(100, 102, 96.9))

	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].DailyReturn != 0 {
		t.Fatalf("first day return should be zero, got %f", points[0].DailyReturn)
	}
	if math.Abs(points[1].DailyReturn-0.02) > 1e-9 {
		t.Fatalf("day 2 return: got %f", points[1].DailyReturn)
	}
	if math.Abs(points[2].DailyReturn-(96.9/102-1)) > 1e-9 {
		t.Fatalf("day 3 return: got %f", points[2].DailyReturn)
	}
	if math.Abs(points[2].CumulativeReturn-(-0.031)) > 1e-9 {
		t.Fatalf("cumulative return: got %f", points[2].CumulativeReturn)
	}
}

func TestComputeVolatility(t *testing.T) {
	points := Compute(series(100, 102, 96.9))

	// Too few returns on the first two days.
	if points[0].Volatility30D != 0 || points[1].Volatility30D != 0 {
		t.Fatalf("volatility should be zero before two returns are available")
	}

	r1, r2 := 0.02, 96.9/102-1
	mean := (r1 + r2) / 2
	variance := ((r1-mean)*(r1-mean) + (r2-mean)*(r2-mean)) / 1
	want := math.Sqrt(variance) * math.Sqrt(252)
	if math.Abs(points[2].Volatility30D-want) > 1e-9 {
		t.Fatalf("volatility: got %f, want %f", points[2].Volatility30D, want)
	}
}

func TestComputeWindowCapped(t *testing.T) {
	// 40 alternating days: the last window holds exactly 30 returns.
	prices := make([]float64, 41)
	for i := range prices {
		if i%2 == 0 {
			prices[i] = 100
		} else {
			prices[i] = 101
		}
	}
	points := Compute(series(prices...))

	last := points[len(points)-1]
	if last.Volatility30D <= 0 {
		t.Fatalf("expected positive volatility, got %f", last.Volatility30D)
	}

	// A longer history with the same recent pattern gives the same
	// windowed volatility.
	longer := Compute(series(append([]float64{100, 101, 100, 101}, prices...)...))
	lastLonger := longer[len(longer)-1]
	if math.Abs(last.Volatility30D-lastLonger.Volatility30D) > 1e-9 {
		t.Fatalf("window not capped: %f vs %f", last.Volatility30D, lastLonger.Volatility30D)
	}
}

func TestSummarize(t *testing.T) {
	points := Compute(series(100, 102, 96.9))
	stats := Summarize(points)

	if stats.Ticker != "AAPL" || stats.Days != 3 {
		t.Fatalf("unexpected header: %+v", stats)
	}
	if math.Abs(stats.PriceChange-(-0.031)) > 1e-9 {
		t.Fatalf("price change: got %f", stats.PriceChange)
	}
	if math.Abs(stats.CumulativeReturn-(-0.031)) > 1e-9 {
		t.Fatalf("cumulative return: got %f", stats.CumulativeReturn)
	}
	wantAvg := (0.02 + (96.9/102 - 1)) / 2
	if math.Abs(stats.AvgDailyReturn-wantAvg) > 1e-9 {
		t.Fatalf("avg daily return: got %f, want %f", stats.AvgDailyReturn, wantAvg)
	}
	if stats.Volatility != points[2].Volatility30D {
		t.Fatalf("volatility: got %f, want %f", stats.Volatility, points[2].Volatility30D)
	}
}

func TestSummarizeSubrange(t *testing.T) {
	points := Compute(series(100, 110, 121))

	// Summarizing the last two points measures the change inside the
	// range, not against the series base.
	stats := Summarize(points[1:])
	if math.Abs(stats.PriceChange-0.10) > 1e-9 {
		t.Fatalf("subrange price change: got %f", stats.PriceChange)
	}
	if stats.Days != 2 {
		t.Fatalf("subrange days: got %d", stats.Days)
	}
}

func TestComputeEmpty(t *testing.T) {
	if points := Compute(nil); points != nil {
		t.Fatalf("expected nil for empty input, got %v", points)
	}
}
