// Package backtest runs day-by-day simulations of the combined
// indicator strategy over historical prices.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/stockfolio/stockfolio/internal/forecast"
	"github.com/stockfolio/stockfolio/internal/indicators"
	"github.com/stockfolio/stockfolio/internal/portfolio"
	"github.com/stockfolio/stockfolio/internal/signal"
	"github.com/stockfolio/stockfolio/internal/sizing"
	"github.com/stockfolio/stockfolio/models"
)

// ErrDataUnavailable reports that a provider has no bars for a ticker
// in the requested range.
var ErrDataUnavailable = errors.New("no price data available")

// series is one ticker's preloaded history: bars in ascending date
// order plus the running close prices for indicator windows.
type series struct {
	bars    []models.PriceBar
	closes  []float64
	byDate  map[string]int
}

// Run simulates the date range in cfg over the given tickers. All
// price data is resolved into memory before the loop starts; the loop
// itself performs no I/O. Mutation order is deterministic: dates
// ascending, tickers in sorted order within a date.
func Run(ctx context.Context, prices PriceProvider, predictor forecast.Provider, tickers []string, cfg Config) (*Result, error) {
	cfg = withDefaults(cfg)
	if prices == nil {
		return nil, errors.New("price provider is required")
	}
	if len(tickers) == 0 {
		return nil, errors.New("at least one ticker is required")
	}
	if !cfg.End.After(cfg.Start) {
		return nil, fmt.Errorf("end %s must be after start %s",
			cfg.End.Format("2006-01-02"), cfg.Start.Format("2006-01-02"))
	}
	if predictor == nil {
		predictor = forecast.None{}
	}

	tickers = normalizeTickers(tickers)

	// Preload everything; a ticker without data is skipped for the
	// whole run, never aborting the others.
	loaded := make(map[string]*series, len(tickers))
	var active []string
	for _, ticker := range tickers {
		bars, err := prices.History(ticker, cfg.Start, cfg.End)
		if err != nil {
			log.Printf("backtest: skipping %s: %v", ticker, err)
			continue
		}
		s := &series{bars: bars, byDate: make(map[string]int, len(bars))}
		for i, b := range bars {
			s.closes = append(s.closes, b.Price())
			s.byDate[models.DateKey(b.Date)] = i
		}
		loaded[ticker] = s
		active = append(active, ticker)
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("backtest: %w for all tickers", ErrDataUnavailable)
	}

	dates := tradingDates(loaded)

	sizer := sizing.New(cfg.Tiers, cfg.BaseFraction)
	sizer.TakeProfitPct = cfg.TakeProfitPct
	sizer.StopLossPct = cfg.StopLossPct
	sizer.StrongAdversePct = cfg.StrongAdversePct

	ledger := portfolio.NewLedger(cfg.InitialCapital)

	// Most recent price per ticker, for valuing positions on days a
	// ticker has no bar.
	lastPrices := make(map[string]float64, len(active))

	if cfg.BootstrapFraction > 0 {
		bootstrap(ledger, loaded, active, dates[0], cfg)
	}

	equity := make([]models.EquityPoint, 0, len(dates))
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := models.DateKey(date)

		// Snapshot the day's prices first so the liquidity fallback
		// and valuation see every ticker trading today.
		dayPrices := make(map[string]float64, len(active))
		for _, ticker := range active {
			if i, ok := loaded[ticker].byDate[key]; ok {
				price := loaded[ticker].bars[i].Price()
				dayPrices[ticker] = price
				lastPrices[ticker] = price
			}
		}

		for _, ticker := range active {
			price, ok := dayPrices[ticker]
			if !ok {
				continue // no bar today: keep position, no trade
			}
			processTicker(ledger, sizer, predictor, loaded[ticker], ticker, date, price, dayPrices, cfg)
		}

		equity = append(equity, models.EquityPoint{Date: date, Value: ledger.TotalValue(lastPrices)})
	}

	summary := Summarize(equity, cfg.RiskFreeRate)
	summary.NumTrades = len(ledger.Trades())

	return &Result{
		Config:         cfg,
		Tickers:        active,
		Equity:         equity,
		Trades:         ledger.Trades(),
		FinalCash:      ledger.Cash(),
		FinalPositions: ledger.Positions(),
		Summary:        summary,
	}, nil
}

// processTicker runs the fixed per-ticker pipeline for one date:
// indicator readings, combined decision, sizing, ledger mutation.
func processTicker(ledger *portfolio.Ledger, sizer *sizing.Sizer, predictor forecast.Provider,
	s *series, ticker string, date time.Time, price float64, dayPrices map[string]float64, cfg Config) {

	idx := s.byDate[models.DateKey(date)]
	closes := s.closes[:idx+1] // trailing window ends at the simulated date

	fp, hasForecast := predictor.Predict(ticker, date)
	delta := 0.0
	if hasForecast {
		delta = fp.Delta(price)
	}

	// Exit overrides run before the vote and preempt it for the day.
	if pos, held := ledger.Position(ticker); held {
		if dec, ok := sizer.ExitOverride(pos, price, delta, hasForecast); ok {
			ledger.Sell(date, ticker, dec.Shares, price)
			return
		}
	}

	readings := []models.IndicatorReading{
		indicators.ForecastVote(fp, hasForecast, price, cfg.ForecastEpsilon),
	}
	if r, ok := indicators.Bollinger(closes, price); ok {
		readings = append(readings, r)
	}
	if r, ok := indicators.RSI(closes); ok {
		readings = append(readings, r)
	}

	switch signal.Combine(readings) {
	case models.VoteBuy:
		if cfg.RequireTrendUp && !indicators.TrendUp(closes) {
			return
		}
		if sizer.BelowLiquidityFloor(ledger.Cash(), price) && cfg.LiquidityFallback {
			if worst, ok := sizing.WorstPerformer(ledger.Positions(), dayPrices, ticker); ok {
				if pos, held := ledger.Position(worst); held {
					ledger.Sell(date, worst, pos.Shares, dayPrices[worst])
				}
			}
		}
		shares := sizer.BuyShares(ledger.Cash(), price, delta, hasForecast)
		if shares > 0 {
			if err := ledger.Buy(date, ticker, shares, price); err != nil {
				log.Printf("backtest: buy %s on %s: %v", ticker, models.DateKey(date), err)
			}
		}
	case models.VoteSell:
		if pos, held := ledger.Position(ticker); held {
			ledger.Sell(date, ticker, sizing.HalfOf(pos.Shares), price)
		}
	}
}

// bootstrap opens an equal-weighted starting position per ticker that
// trades on the first date.
func bootstrap(ledger *portfolio.Ledger, loaded map[string]*series, active []string, first time.Time, cfg Config) {
	key := models.DateKey(first)
	for _, ticker := range active {
		s := loaded[ticker]
		i, ok := s.byDate[key]
		if !ok {
			continue
		}
		price := s.bars[i].Price()
		if price <= 0 {
			continue
		}
		shares := int64(cfg.InitialCapital * cfg.BootstrapFraction / price)
		if shares <= 0 || float64(shares)*price > ledger.Cash() {
			continue
		}
		if err := ledger.Buy(first, ticker, shares, price); err != nil {
			log.Printf("backtest: bootstrap %s: %v", ticker, err)
		}
	}
}

// tradingDates is the sorted union of all loaded bar dates.
func tradingDates(loaded map[string]*series) []time.Time {
	seen := make(map[string]time.Time)
	for _, s := range loaded {
		for _, b := range s.bars {
			seen[models.DateKey(b.Date)] = b.Date
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func normalizeTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func withDefaults(cfg Config) Config {
	if cfg.InitialCapital <= 0 {
		cfg.InitialCapital = 100000
	}
	if cfg.ForecastEpsilon <= 0 {
		cfg.ForecastEpsilon = 1e-4
	}
	if cfg.Tiers == nil {
		cfg.Tiers = sizing.DefaultTiers()
	}
	if cfg.BaseFraction <= 0 {
		cfg.BaseFraction = 0.10
	}
	if cfg.TakeProfitPct <= 0 {
		cfg.TakeProfitPct = 0.20
	}
	if cfg.StopLossPct <= 0 {
		cfg.StopLossPct = 0.07
	}
	if cfg.StrongAdversePct <= 0 {
		cfg.StrongAdversePct = 0.01
	}
	if cfg.RiskFreeRate <= 0 {
		cfg.RiskFreeRate = 0.02
	}
	return cfg
}
