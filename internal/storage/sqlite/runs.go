package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockfolio/stockfolio/internal/backtest"
	"github.com/stockfolio/stockfolio/models"
)

type RunRecord struct {
	ID        string
	StartDate string
	EndDate   string
	Tickers   []string
	Config    backtest.Config
	Summary   backtest.Summary
	FinalCash float64
	CreatedAt string
}

// SaveRun persists a finished simulation and its trade log in one
// transaction, returning the generated run id.
func (s *Store) SaveRun(ctx context.Context, res *backtest.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("result is required")
	}

	configJSON, err := json.Marshal(res.Config)
	if err != nil {
		return "", fmt.Errorf("marshal run config: %w", err)
	}
	summaryJSON, err := json.Marshal(res.Summary)
	if err != nil {
		return "", fmt.Errorf("marshal run summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
INSERT INTO backtest_runs (id, start_date, end_date, tickers, config_json, summary_json, final_cash)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, id, models.DateKey(res.Config.Start), models.DateKey(res.Config.End),
		strings.Join(res.Tickers, ","), string(configJSON), string(summaryJSON), res.FinalCash)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO backtest_trades (run_id, seq, date, ticker, side, shares, price)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return "", fmt.Errorf("prepare trades: %w", err)
	}
	defer stmt.Close()

	for i, t := range res.Trades {
		if _, err := stmt.ExecContext(ctx, id, i+1, models.DateKey(t.Date),
			t.Ticker, string(t.Side), t.Shares, t.Price); err != nil {
			return "", fmt.Errorf("insert trade %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, start_date, end_date, tickers, config_json, summary_json, final_cash, created_at
FROM backtest_runs
ORDER BY created_at DESC, id
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs rows: %w", err)
	}
	return runs, nil
}

// GetRun returns one stored run, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("run id is required")
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, start_date, end_date, tickers, config_json, summary_json, final_cash, created_at
FROM backtest_runs
WHERE id = ?
LIMIT 1
`, id)

	rec, err := scanRun(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// RunTrades returns the trade log of a stored run in execution order.
func (s *Store) RunTrades(ctx context.Context, runID string) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT date, ticker, side, shares, price
FROM backtest_trades
WHERE run_id = ?
ORDER BY seq ASC
`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var date, side string
		if err := rows.Scan(&date, &t.Ticker, &side, &t.Shares, &t.Price); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parse trade date %q: %w", date, err)
		}
		t.Side = models.Side(side)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run trades rows: %w", err)
	}
	return trades, nil
}

func scanRun(scan func(...any) error) (*RunRecord, error) {
	var rec RunRecord
	var tickers, configJSON, summaryJSON string
	if err := scan(&rec.ID, &rec.StartDate, &rec.EndDate, &tickers,
		&configJSON, &summaryJSON, &rec.FinalCash, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if tickers != "" {
		rec.Tickers = strings.Split(tickers, ",")
	}
	if err := json.Unmarshal([]byte(configJSON), &rec.Config); err != nil {
		return nil, fmt.Errorf("parse run config: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
		return nil, fmt.Errorf("parse run summary: %w", err)
	}
	return &rec, nil
}
