package sizing

import (
	"testing"

	"github.com/stockfolio/stockfolio/models"
)

func TestFractionTiers(t *testing.T) {
	s := New(DefaultTiers(), 0.10)

	cases := []struct {
		magnitude float64
		want      float64
	}{
		{0.06, 0.40},
		{0.04, 0.30},
		{0.02, 0.15},
		{0.005, 0.10}, // below all tiers falls back to base
	}
	for _, tc := range cases {
		if got := s.Fraction(tc.magnitude, true); got != tc.want {
			t.Fatalf("magnitude %f: got %f, want %f", tc.magnitude, got, tc.want)
		}
	}

	if got := s.Fraction(0.5, false); got != 0.10 {
		t.Fatalf("no magnitude should use base fraction, got %f", got)
	}
}

func TestBuySharesFloorsAndLiquidity(t *testing.T) {
	s := New(nil, 0.10)

	// floor(10000 * 0.10 / 72) = 13
	if got := s.BuyShares(10000, 72, 0, false); got != 13 {
		t.Fatalf("shares: got %d, want 13", got)
	}

	// Cash at or below price*10 refuses to buy.
	if got := s.BuyShares(700, 72, 0, false); got != 0 {
		t.Fatalf("below liquidity floor should size zero, got %d", got)
	}

	// Just above the floor still rounds down to whole shares.
	if got := s.BuyShares(1100, 100, 0, false); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestHalfOf(t *testing.T) {
	if got := HalfOf(9); got != 4 {
		t.Fatalf("half of 9: got %d, want 4", got)
	}
	if got := HalfOf(1); got != 1 {
		t.Fatalf("half of 1 keeps the single share: got %d", got)
	}
	if got := HalfOf(0); got != 0 {
		t.Fatalf("half of 0: got %d", got)
	}
}

func TestExitOverrideTakeProfit(t *testing.T) {
	s := New(DefaultTiers(), 0.10)
	pos := models.Position{Ticker: "AAPL", Shares: 11, AvgEntry: 100}

	// 21% profit with a 20% take-profit threshold: half sell.
	dec, ok := s.ExitOverride(pos, 121, 0, false)
	if !ok {
		t.Fatalf("expected take-profit exit")
	}
	if dec.Full || dec.Shares != 5 {
		t.Fatalf("want half sell of 5 shares, got %+v", dec)
	}
}

func TestExitOverrideStopLoss(t *testing.T) {
	s := New(DefaultTiers(), 0.10)
	pos := models.Position{Ticker: "AAPL", Shares: 10, AvgEntry: 100}

	dec, ok := s.ExitOverride(pos, 92, 0, false)
	if !ok || !dec.Full || dec.Shares != 10 {
		t.Fatalf("8%% loss should trigger full stop-loss sell, got %+v ok=%v", dec, ok)
	}

	if _, ok := s.ExitOverride(pos, 95, 0, false); ok {
		t.Fatalf("5%% loss is inside the stop-loss threshold")
	}
}

func TestExitOverrideStrongAdverseForecast(t *testing.T) {
	s := New(DefaultTiers(), 0.10)
	pos := models.Position{Ticker: "AAPL", Shares: 10, AvgEntry: 100}

	dec, ok := s.ExitOverride(pos, 101, -0.02, true)
	if !ok || !dec.Full {
		t.Fatalf("strong adverse forecast should liquidate fully, got %+v ok=%v", dec, ok)
	}

	if _, ok := s.ExitOverride(pos, 101, -0.002, true); ok {
		t.Fatalf("mild adverse forecast should not force an exit")
	}
}

func TestWorstPerformer(t *testing.T) {
	positions := []models.Position{
		{Ticker: "AAPL", Shares: 10, AvgEntry: 100},
		{Ticker: "MSFT", Shares: 10, AvgEntry: 200},
		{Ticker: "TSLA", Shares: 10, AvgEntry: 50},
	}
	prices := map[string]float64{
		"AAPL": 110, // +10%
		"MSFT": 150, // -25%
		"TSLA": 55,  // +10%
	}

	worst, ok := WorstPerformer(positions, prices, "NVDA")
	if !ok || worst != "MSFT" {
		t.Fatalf("worst performer: got %q ok=%v, want MSFT", worst, ok)
	}

	// The buy candidate itself is never liquidated.
	worst, ok = WorstPerformer(positions, prices, "MSFT")
	if !ok || worst == "MSFT" {
		t.Fatalf("candidate must be excluded, got %q", worst)
	}

	if _, ok := WorstPerformer(nil, prices, "AAPL"); ok {
		t.Fatalf("no positions means no fallback candidate")
	}
}
