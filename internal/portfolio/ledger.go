// Package portfolio holds the authoritative mutable state of one
// backtest run: cash, open positions and the executed trade log.
package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

// Ledger owns all positions and the trade log for a single run. It is
// not safe for concurrent use; the simulation driver is the single
// writer.
type Ledger struct {
	cash      float64
	positions map[string]*models.Position
	trades    []models.Trade
}

// NewLedger creates a ledger with the given starting cash.
func NewLedger(cash float64) *Ledger {
	return &Ledger{
		cash:      cash,
		positions: make(map[string]*models.Position),
	}
}

// Cash returns the current cash balance. Never negative: trades that
// would overdraw are rejected.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Position returns a copy of the position for ticker, if held.
func (l *Ledger) Position(ticker string) (models.Position, bool) {
	p, ok := l.positions[ticker]
	if !ok {
		return models.Position{}, false
	}
	return *p, true
}

// Positions returns copies of all open positions sorted by ticker.
func (l *Ledger) Positions() []models.Position {
	out := make([]models.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Trades returns the append-only trade log in execution order.
func (l *Ledger) Trades() []models.Trade {
	out := make([]models.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Buy debits cash and adds shares at price, re-weighting the average
// entry price on a partial buy.
func (l *Ledger) Buy(date time.Time, ticker string, shares int64, price float64) error {
	if shares <= 0 {
		return fmt.Errorf("buy %s: share count must be positive, got %d", ticker, shares)
	}
	if price <= 0 {
		return fmt.Errorf("buy %s: price must be positive, got %f", ticker, price)
	}
	cost := float64(shares) * price
	if cost > l.cash {
		return fmt.Errorf("buy %s: cost %.2f exceeds cash %.2f", ticker, cost, l.cash)
	}

	l.cash -= cost
	if p, ok := l.positions[ticker]; ok {
		total := p.Shares + shares
		p.AvgEntry = (float64(p.Shares)*p.AvgEntry + float64(shares)*price) / float64(total)
		p.Shares = total
	} else {
		l.positions[ticker] = &models.Position{Ticker: ticker, Shares: shares, AvgEntry: price}
	}

	l.trades = append(l.trades, models.Trade{
		Date: date, Ticker: ticker, Side: models.SideBuy, Shares: shares, Price: price,
	})
	return nil
}

// Sell credits cash for up to shares of ticker at price and returns the
// quantity actually sold. Selling with no held shares is a no-op; a
// request beyond the held quantity is clamped. A position reduced to
// zero shares is removed from the ledger.
func (l *Ledger) Sell(date time.Time, ticker string, shares int64, price float64) int64 {
	p, ok := l.positions[ticker]
	if !ok || shares <= 0 || price <= 0 {
		return 0
	}
	if shares > p.Shares {
		shares = p.Shares
	}

	l.cash += float64(shares) * price
	p.Shares -= shares
	if p.Shares == 0 {
		delete(l.positions, ticker)
	}

	l.trades = append(l.trades, models.Trade{
		Date: date, Ticker: ticker, Side: models.SideSell, Shares: shares, Price: price,
	})
	return shares
}

// TotalValue is cash plus the mark-to-market value of all positions at
// the given prices. Tickers missing a price contribute their last
// known value of zero for the day only if no price is supplied; the
// driver passes the most recent price snapshot to avoid that.
func (l *Ledger) TotalValue(prices map[string]float64) float64 {
	value := l.cash
	for ticker, p := range l.positions {
		value += float64(p.Shares) * prices[ticker]
	}
	return value
}

// Replay applies an ordered trade log to a fresh ledger with the given
// starting cash. Replaying the log of a finished run reproduces its
// final state exactly.
func Replay(cash float64, trades []models.Trade) (*Ledger, error) {
	l := NewLedger(cash)
	for i, tr := range trades {
		switch tr.Side {
		case models.SideBuy:
			if err := l.Buy(tr.Date, tr.Ticker, tr.Shares, tr.Price); err != nil {
				return nil, fmt.Errorf("replay trade %d: %w", i, err)
			}
		case models.SideSell:
			if sold := l.Sell(tr.Date, tr.Ticker, tr.Shares, tr.Price); sold != tr.Shares {
				return nil, fmt.Errorf("replay trade %d: sold %d of %d shares", i, sold, tr.Shares)
			}
		default:
			return nil, fmt.Errorf("replay trade %d: unknown side %q", i, tr.Side)
		}
	}
	return l, nil
}
