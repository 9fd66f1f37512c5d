package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

type MetricRecord struct {
	Ticker           string
	Date             time.Time
	DailyReturn      float64
	CumulativeReturn float64
	Volatility30D    float64
}

// UpsertBars writes price bars, replacing any existing row for the same
// ticker and date. All rows go in one transaction.
func (s *Store) UpsertBars(ctx context.Context, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert bars: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO stock_data (ticker, date, open, high, low, close, adj_close, volume)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(ticker, date) DO UPDATE SET
    open=excluded.open,
    high=excluded.high,
    low=excluded.low,
    close=excluded.close,
    adj_close=excluded.adj_close,
    volume=excluded.volume
`)
	if err != nil {
		return fmt.Errorf("prepare upsert bars: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if strings.TrimSpace(b.Ticker) == "" {
			return fmt.Errorf("bar without ticker on %s", models.DateKey(b.Date))
		}
		if _, err := stmt.ExecContext(ctx, b.Ticker, models.DateKey(b.Date),
			b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume); err != nil {
			return fmt.Errorf("upsert bar %s %s: %w", b.Ticker, models.DateKey(b.Date), err)
		}
	}

	return tx.Commit()
}

// HistoryContext returns bars for a ticker in [start, end], ascending.
func (s *Store) HistoryContext(ctx context.Context, ticker string, start, end time.Time) ([]models.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT ticker, date, open, high, low, close, adj_close, volume
FROM stock_data
WHERE ticker = ? AND date >= ? AND date <= ?
ORDER BY date ASC
`, ticker, models.DateKey(start), models.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		var date string
		if err := rows.Scan(&b.Ticker, &date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parse bar date %q: %w", date, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no stored data for %s between %s and %s",
			ticker, models.DateKey(start), models.DateKey(end))
	}
	return bars, nil
}

// History satisfies the simulation's price provider interface.
func (s *Store) History(ticker string, start, end time.Time) ([]models.PriceBar, error) {
	return s.HistoryContext(context.Background(), ticker, start, end)
}

// Tickers lists every ticker with stored price data.
func (s *Store) Tickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT ticker FROM stock_data ORDER BY ticker
`)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tickers rows: %w", err)
	}
	return tickers, nil
}

// DateRange reports the first and last stored dates for a ticker.
func (s *Store) DateRange(ctx context.Context, ticker string) (time.Time, time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT MIN(date), MAX(date) FROM stock_data WHERE ticker = ?
`, ticker)

	var minDate, maxDate *string
	if err := row.Scan(&minDate, &maxDate); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date range: %w", err)
	}
	if minDate == nil || maxDate == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("no stored data for %s", ticker)
	}

	first, err := time.Parse("2006-01-02", *minDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse min date: %w", err)
	}
	last, err := time.Parse("2006-01-02", *maxDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse max date: %w", err)
	}
	return first, last, nil
}

// UpsertMetrics writes computed per-day statistics for a ticker.
func (s *Store) UpsertMetrics(ctx context.Context, metrics []MetricRecord) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert metrics: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO stock_metrics (ticker, date, daily_return, cumulative_return, volatility_30d)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(ticker, date) DO UPDATE SET
    daily_return=excluded.daily_return,
    cumulative_return=excluded.cumulative_return,
    volatility_30d=excluded.volatility_30d
`)
	if err != nil {
		return fmt.Errorf("prepare upsert metrics: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx, m.Ticker, models.DateKey(m.Date),
			m.DailyReturn, m.CumulativeReturn, m.Volatility30D); err != nil {
			return fmt.Errorf("upsert metric %s %s: %w", m.Ticker, models.DateKey(m.Date), err)
		}
	}

	return tx.Commit()
}

// MetricsFor returns stored metrics for a ticker in [start, end], ascending.
func (s *Store) MetricsFor(ctx context.Context, ticker string, start, end time.Time) ([]MetricRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT ticker, date, daily_return, cumulative_return, volatility_30d
FROM stock_metrics
WHERE ticker = ? AND date >= ? AND date <= ?
ORDER BY date ASC
`, ticker, models.DateKey(start), models.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []MetricRecord
	for rows.Next() {
		var m MetricRecord
		var date string
		if err := rows.Scan(&m.Ticker, &date, &m.DailyReturn, &m.CumulativeReturn, &m.Volatility30D); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parse metric date %q: %w", date, err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metrics rows: %w", err)
	}
	return metrics, nil
}
