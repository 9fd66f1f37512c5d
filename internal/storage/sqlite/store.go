// Package sqlite persists users, portfolios, price history, computed
// metrics, and finished simulation runs in a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

type UserRecord struct {
	ID        string
	Name      string
	CreatedAt string
	UpdatedAt string
}

type PortfolioRecord struct {
	ID        string
	UserID    string
	Name      string
	Cash      float64
	CreatedAt string
	UpdatedAt string
}

type HoldingRecord struct {
	PortfolioID string
	Ticker      string
	Shares      int64
	AvgEntry    float64
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS portfolios (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    cash REAL NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(user_id, name)
);

CREATE TABLE IF NOT EXISTS portfolio_stocks (
    portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
    ticker TEXT NOT NULL,
    shares INTEGER NOT NULL,
    avg_entry REAL NOT NULL,
    PRIMARY KEY(portfolio_id, ticker)
);

CREATE TABLE IF NOT EXISTS stock_data (
    ticker TEXT NOT NULL,
    date TEXT NOT NULL,
    open REAL,
    high REAL,
    low REAL,
    close REAL,
    adj_close REAL,
    volume INTEGER,
    PRIMARY KEY(ticker, date)
);

CREATE TABLE IF NOT EXISTS stock_metrics (
    ticker TEXT NOT NULL,
    date TEXT NOT NULL,
    daily_return REAL,
    cumulative_return REAL,
    volatility_30d REAL,
    PRIMARY KEY(ticker, date)
);

CREATE TABLE IF NOT EXISTS backtest_runs (
    id TEXT PRIMARY KEY,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    tickers TEXT NOT NULL,
    config_json TEXT NOT NULL,
    summary_json TEXT NOT NULL,
    final_cash REAL NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS backtest_trades (
    run_id TEXT NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    date TEXT NOT NULL,
    ticker TEXT NOT NULL,
    side TEXT NOT NULL,
    shares INTEGER NOT NULL,
    price REAL NOT NULL,
    PRIMARY KEY(run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_stock_data_date ON stock_data(date);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, name string) (*UserRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("user name is required")
	}

	rec := UserRecord{ID: uuid.New().String(), Name: name}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, name) VALUES (?, ?)
`, rec.ID, rec.Name)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &rec, nil
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, created_at, updated_at FROM users WHERE name = ? LIMIT 1
`, strings.TrimSpace(name))

	var rec UserRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, created_at, updated_at FROM users ORDER BY name
`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var rec UserRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users rows: %w", err)
	}
	return users, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("user id is required")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Store) CreatePortfolio(ctx context.Context, userID, name string, cash float64) (*PortfolioRecord, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(userID) == "" || name == "" {
		return nil, fmt.Errorf("user id and portfolio name are required")
	}
	if cash < 0 {
		return nil, fmt.Errorf("cash cannot be negative: %f", cash)
	}

	rec := PortfolioRecord{ID: uuid.New().String(), UserID: userID, Name: name, Cash: cash}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO portfolios (id, user_id, name, cash) VALUES (?, ?, ?, ?)
`, rec.ID, rec.UserID, rec.Name, rec.Cash)
	if err != nil {
		return nil, fmt.Errorf("insert portfolio: %w", err)
	}
	return &rec, nil
}

func (s *Store) GetPortfolio(ctx context.Context, id string) (*PortfolioRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, name, cash, created_at, updated_at FROM portfolios WHERE id = ? LIMIT 1
`, id)

	var rec PortfolioRecord
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Cash, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get portfolio: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListPortfolios(ctx context.Context, userID string) ([]PortfolioRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, name, cash, created_at, updated_at
FROM portfolios
WHERE user_id = ?
ORDER BY name
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []PortfolioRecord
	for rows.Next() {
		var rec PortfolioRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Cash, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		portfolios = append(portfolios, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list portfolios rows: %w", err)
	}
	return portfolios, nil
}

func (s *Store) UpdatePortfolioCash(ctx context.Context, id string, cash float64) error {
	if cash < 0 {
		return fmt.Errorf("cash cannot be negative: %f", cash)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE portfolios SET cash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`, cash, id)
	if err != nil {
		return fmt.Errorf("update portfolio cash: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("portfolio %s not found", id)
	}
	return nil
}

func (s *Store) DeletePortfolio(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("portfolio id is required")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	return nil
}

// UpsertHolding writes the current share count and weighted entry price
// for one position. A non-positive share count removes the row.
func (s *Store) UpsertHolding(ctx context.Context, h HoldingRecord) error {
	if strings.TrimSpace(h.PortfolioID) == "" || strings.TrimSpace(h.Ticker) == "" {
		return fmt.Errorf("portfolio id and ticker are required")
	}
	if h.Shares <= 0 {
		return s.RemoveHolding(ctx, h.PortfolioID, h.Ticker)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO portfolio_stocks (portfolio_id, ticker, shares, avg_entry)
VALUES (?, ?, ?, ?)
ON CONFLICT(portfolio_id, ticker) DO UPDATE SET
    shares=excluded.shares,
    avg_entry=excluded.avg_entry
`, h.PortfolioID, h.Ticker, h.Shares, h.AvgEntry)
	if err != nil {
		return fmt.Errorf("upsert holding: %w", err)
	}
	return nil
}

func (s *Store) RemoveHolding(ctx context.Context, portfolioID, ticker string) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM portfolio_stocks WHERE portfolio_id = ? AND ticker = ?
`, portfolioID, ticker)
	if err != nil {
		return fmt.Errorf("remove holding: %w", err)
	}
	return nil
}

func (s *Store) ListHoldings(ctx context.Context, portfolioID string) ([]HoldingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT portfolio_id, ticker, shares, avg_entry
FROM portfolio_stocks
WHERE portfolio_id = ?
ORDER BY ticker
`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []HoldingRecord
	for rows.Next() {
		var rec HoldingRecord
		if err := rows.Scan(&rec.PortfolioID, &rec.Ticker, &rec.Shares, &rec.AvgEntry); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		holdings = append(holdings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list holdings rows: %w", err)
	}
	return holdings, nil
}
