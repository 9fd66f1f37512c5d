// Package sizing translates trade decisions and conviction strength
// into concrete share quantities.
package sizing

import (
	"sort"

	"github.com/stockfolio/stockfolio/models"
)

// Tier maps a forecast-change magnitude to the fraction of cash to
// deploy when conviction reaches that magnitude.
type Tier struct {
	Magnitude float64 `json:"magnitude"`
	Fraction  float64 `json:"fraction"`
}

// DefaultTiers are the standard conviction bands: stronger predicted
// moves commit a larger share of cash.
func DefaultTiers() []Tier {
	return []Tier{
		{Magnitude: 0.05, Fraction: 0.40},
		{Magnitude: 0.03, Fraction: 0.30},
		{Magnitude: 0.01, Fraction: 0.15},
	}
}

// Sizer holds the sizing policy for one backtest run.
type Sizer struct {
	// Tiers in any order; matched highest magnitude first.
	Tiers []Tier
	// BaseFraction applies when no forecast magnitude is available.
	BaseFraction float64
	// LiquidityFloor multiplies price to form the minimum cash needed
	// before a buy executes (classically 10 shares' worth).
	LiquidityFloor float64
	// TakeProfitPct triggers a half sell once unrealized profit
	// exceeds it.
	TakeProfitPct float64
	// StopLossPct (positive number) triggers a full sell once the
	// unrealized loss exceeds it.
	StopLossPct float64
	// StrongAdversePct (positive number) is the forecast drop beyond
	// which the whole position is liquidated.
	StrongAdversePct float64
}

// New returns a sizer with the given tiers and the default exit
// thresholds used by the reference strategy.
func New(tiers []Tier, baseFraction float64) *Sizer {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Magnitude > sorted[j].Magnitude })
	return &Sizer{
		Tiers:            sorted,
		BaseFraction:     baseFraction,
		LiquidityFloor:   10,
		TakeProfitPct:    0.20,
		StopLossPct:      0.07,
		StrongAdversePct: 0.01,
	}
}

// Fraction picks the cash fraction for a given conviction magnitude.
func (s *Sizer) Fraction(magnitude float64, hasMagnitude bool) float64 {
	if !hasMagnitude {
		return s.BaseFraction
	}
	for _, t := range s.Tiers {
		if magnitude > t.Magnitude {
			return t.Fraction
		}
	}
	return s.BaseFraction
}

// BuyShares computes the quantity to buy with the available cash.
// Returns zero when cash is at or below the liquidity floor or the
// fraction buys less than one whole share.
func (s *Sizer) BuyShares(cash, price, magnitude float64, hasMagnitude bool) int64 {
	if price <= 0 || cash <= price*s.LiquidityFloor {
		return 0
	}
	fraction := s.Fraction(magnitude, hasMagnitude)
	return int64(cash * fraction / price)
}

// BelowLiquidityFloor reports whether cash is too low for a buy at
// price, the condition that triggers the liquidity fallback.
func (s *Sizer) BelowLiquidityFloor(cash, price float64) bool {
	return cash < price*s.LiquidityFloor
}

// HalfOf is the partial-sell quantity: half the held shares rounded
// down, minimum one when anything is held.
func HalfOf(shares int64) int64 {
	if shares <= 0 {
		return 0
	}
	if half := shares / 2; half > 0 {
		return half
	}
	return shares
}

// ExitDecision describes a forced exit for a held position.
type ExitDecision struct {
	Shares int64
	Full   bool
}

// ExitOverride checks the take-profit / stop-loss / adverse-forecast
// rules for a held position. These override the indicator-driven SELL:
//
//   - forecast drop beyond StrongAdversePct → liquidate fully
//   - unrealized loss beyond StopLossPct → liquidate fully
//   - unrealized profit beyond TakeProfitPct → sell half
func (s *Sizer) ExitOverride(pos models.Position, price, forecastDelta float64, hasForecast bool) (ExitDecision, bool) {
	if pos.Shares <= 0 {
		return ExitDecision{}, false
	}
	if hasForecast && forecastDelta < -s.StrongAdversePct {
		return ExitDecision{Shares: pos.Shares, Full: true}, true
	}
	ret := pos.UnrealizedReturn(price)
	if ret < -s.StopLossPct {
		return ExitDecision{Shares: pos.Shares, Full: true}, true
	}
	if ret > s.TakeProfitPct {
		return ExitDecision{Shares: HalfOf(pos.Shares)}, true
	}
	return ExitDecision{}, false
}

// WorstPerformer picks the held position with the lowest unrealized
// return at current prices, excluding the buy candidate. Used by the
// liquidity fallback to free cash. Positions without a price for the
// day are skipped.
func WorstPerformer(positions []models.Position, prices map[string]float64, exclude string) (string, bool) {
	worst := ""
	worstReturn := 0.0
	found := false
	for _, p := range positions {
		if p.Ticker == exclude || p.Shares <= 0 {
			continue
		}
		price, ok := prices[p.Ticker]
		if !ok || price <= 0 {
			continue
		}
		ret := p.UnrealizedReturn(price)
		if !found || ret < worstReturn {
			worst = p.Ticker
			worstReturn = ret
			found = true
		}
	}
	return worst, found
}
