package backtest

import (
	"time"

	"github.com/stockfolio/stockfolio/internal/sizing"
	"github.com/stockfolio/stockfolio/models"
)

// PriceProvider supplies the historical bars a run is simulated over.
// Bars must be in ascending date order and must not include dates
// outside the requested range.
type PriceProvider interface {
	History(ticker string, start, end time.Time) ([]models.PriceBar, error)
}

// Config is the full set of knobs for one backtest run. Zero values
// are replaced with the reference defaults by Run.
type Config struct {
	InitialCapital float64   `json:"initial_capital"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`

	// ForecastEpsilon is the minimum forecast delta that counts as a
	// directional vote. The statistical-model preset uses 1e-4, the
	// learned-model preset 0.01.
	ForecastEpsilon float64 `json:"forecast_epsilon"`

	// Tiers map forecast magnitude to cash fraction; BaseFraction
	// applies when no forecast is available.
	Tiers        []sizing.Tier `json:"tiers"`
	BaseFraction float64       `json:"base_fraction"`

	// BootstrapFraction of starting capital is put into an
	// equal-weighted position per ticker on the first day. Zero
	// disables the opening allocation.
	BootstrapFraction float64 `json:"bootstrap_fraction"`

	TakeProfitPct    float64 `json:"take_profit_pct"`
	StopLossPct      float64 `json:"stop_loss_pct"`
	StrongAdversePct float64 `json:"strong_adverse_pct"`

	RiskFreeRate float64 `json:"risk_free_rate"`

	// RequireTrendUp gates BUY decisions on the 5-day moving-average
	// trend pointing up.
	RequireTrendUp bool `json:"require_trend_up"`

	// LiquidityFallback force-liquidates the worst-performing held
	// position when a BUY is signalled with insufficient cash.
	LiquidityFallback bool `json:"liquidity_fallback"`
}

// DefaultConfig returns the voting-strategy defaults.
func DefaultConfig(start, end time.Time) Config {
	return Config{
		InitialCapital:    100000,
		Start:             start,
		End:               end,
		ForecastEpsilon:   1e-4,
		Tiers:             sizing.DefaultTiers(),
		BaseFraction:      0.10,
		BootstrapFraction: 0.03,
		TakeProfitPct:     0.20,
		StopLossPct:       0.07,
		StrongAdversePct:  0.01,
		RiskFreeRate:      0.02,
		LiquidityFallback: true,
	}
}

// Result is everything one finished run produced.
type Result struct {
	Config         Config              `json:"config"`
	Tickers        []string            `json:"tickers"`
	Equity         []models.EquityPoint `json:"equity"`
	Trades         []models.Trade      `json:"trades"`
	FinalCash      float64             `json:"final_cash"`
	FinalPositions []models.Position   `json:"final_positions"`
	Summary        Summary             `json:"summary"`
}

// MemoryProvider serves preloaded bars from memory. It backs tests and
// any caller that already resolved its data.
type MemoryProvider struct {
	bars map[string][]models.PriceBar
}

// NewMemoryProvider builds a provider over the given per-ticker bars.
func NewMemoryProvider(bars map[string][]models.PriceBar) *MemoryProvider {
	return &MemoryProvider{bars: bars}
}

func (m *MemoryProvider) History(ticker string, start, end time.Time) ([]models.PriceBar, error) {
	all, ok := m.bars[ticker]
	if !ok || len(all) == 0 {
		return nil, ErrDataUnavailable
	}
	var out []models.PriceBar
	for _, b := range all {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, ErrDataUnavailable
	}
	return out, nil
}
