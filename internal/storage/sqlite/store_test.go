package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stockfolio/stockfolio/internal/backtest"
	"github.com/stockfolio/stockfolio/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserAndPortfolioLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "alice")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := store.CreateUser(ctx, "alice"); err == nil {
		t.Fatalf("duplicate user name accepted")
	}

	found, err := store.GetUserByName(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByName: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatalf("user lookup mismatch: %+v", found)
	}

	pf, err := store.CreatePortfolio(ctx, user.ID, "growth", 100000)
	if err != nil {
		t.Fatalf("CreatePortfolio: %v", err)
	}

	if err := store.UpsertHolding(ctx, HoldingRecord{
		PortfolioID: pf.ID, Ticker: "AAPL", Shares: 10, AvgEntry: 150,
	}); err != nil {
		t.Fatalf("UpsertHolding: %v", err)
	}

	holdings, err := store.ListHoldings(ctx, pf.ID)
	if err != nil {
		t.Fatalf("ListHoldings: %v", err)
	}
	if len(holdings) != 1 || holdings[0].Shares != 10 {
		t.Fatalf("holdings: %+v", holdings)
	}

	// zero shares removes the row
	if err := store.UpsertHolding(ctx, HoldingRecord{
		PortfolioID: pf.ID, Ticker: "AAPL", Shares: 0,
	}); err != nil {
		t.Fatalf("UpsertHolding zero: %v", err)
	}
	holdings, err = store.ListHoldings(ctx, pf.ID)
	if err != nil {
		t.Fatalf("ListHoldings: %v", err)
	}
	if len(holdings) != 0 {
		t.Fatalf("holding not removed: %+v", holdings)
	}

	// deleting the user cascades to portfolios
	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	gone, err := store.GetPortfolio(ctx, pf.ID)
	if err != nil {
		t.Fatalf("GetPortfolio: %v", err)
	}
	if gone != nil {
		t.Fatalf("portfolio survived user deletion: %+v", gone)
	}
}

func TestBarsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	d := func(day int) time.Time {
		return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	}
	bars := []models.PriceBar{
		{Ticker: "AAPL", Date: d(3), Open: 101, High: 103, Low: 100, Close: 102, AdjClose: 102, Volume: 500},
		{Ticker: "AAPL", Date: d(2), Open: 100, High: 102, Low: 99, Close: 101, AdjClose: 101, Volume: 400},
	}
	if err := store.UpsertBars(ctx, bars); err != nil {
		t.Fatalf("UpsertBars: %v", err)
	}

	// upsert replaces the existing row
	bars[0].Close = 105
	bars[0].AdjClose = 105
	if err := store.UpsertBars(ctx, bars[:1]); err != nil {
		t.Fatalf("UpsertBars replace: %v", err)
	}

	got, err := store.History("AAPL", d(1), d(5))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Fatalf("bars not ascending: %v, %v", got[0].Date, got[1].Date)
	}
	if got[1].Close != 105 {
		t.Fatalf("replaced close not stored: %f", got[1].Close)
	}

	if _, err := store.History("AAPL", d(10), d(20)); err == nil {
		t.Fatalf("empty range should error")
	}

	first, last, err := store.DateRange(ctx, "AAPL")
	if err != nil {
		t.Fatalf("DateRange: %v", err)
	}
	if !first.Equal(d(2)) || !last.Equal(d(3)) {
		t.Fatalf("date range: %v .. %v", first, last)
	}

	tickers, err := store.Tickers(ctx)
	if err != nil {
		t.Fatalf("Tickers: %v", err)
	}
	if len(tickers) != 1 || tickers[0] != "AAPL" {
		t.Fatalf("tickers: %v", tickers)
	}
}

func TestMetricsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	d := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	in := []MetricRecord{
		{Ticker: "MSFT", Date: d, DailyReturn: 0.01, CumulativeReturn: 0.05, Volatility30D: 0.2},
		{Ticker: "MSFT", Date: d.AddDate(0, 0, 1), DailyReturn: -0.02, CumulativeReturn: 0.03, Volatility30D: 0.21},
	}
	if err := store.UpsertMetrics(ctx, in); err != nil {
		t.Fatalf("UpsertMetrics: %v", err)
	}

	out, err := store.MetricsFor(ctx, "MSFT", d, d.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("MetricsFor: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(out))
	}
	if out[0].DailyReturn != 0.01 || out[1].Volatility30D != 0.21 {
		t.Fatalf("metrics mismatch: %+v", out)
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	res := &backtest.Result{
		Config:  backtest.DefaultConfig(start, end),
		Tickers: []string{"AAPL", "MSFT"},
		Trades: []models.Trade{
			{Date: start, Ticker: "AAPL", Side: models.SideBuy, Shares: 10, Price: 100},
			{Date: start.AddDate(0, 0, 5), Ticker: "AAPL", Side: models.SideSell, Shares: 5, Price: 110},
		},
		FinalCash: 99550,
		Summary:   backtest.Summarize(nil, 0.02), // NaN stats must persist
	}

	id, err := store.SaveRun(ctx, res)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	rec, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec == nil {
		t.Fatalf("run not found after save")
	}
	if len(rec.Tickers) != 2 || rec.Tickers[1] != "MSFT" {
		t.Fatalf("tickers: %v", rec.Tickers)
	}
	if rec.FinalCash != 99550 {
		t.Fatalf("final cash: %f", rec.FinalCash)
	}
	if !math.IsNaN(rec.Summary.SharpeRatio) {
		t.Fatalf("NaN sharpe should survive persistence, got %f", rec.Summary.SharpeRatio)
	}

	trades, err := store.RunTrades(ctx, id)
	if err != nil {
		t.Fatalf("RunTrades: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Side != models.SideBuy || trades[1].Side != models.SideSell {
		t.Fatalf("trade order lost: %+v", trades)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("runs: %+v", runs)
	}

	missing, err := store.GetRun(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("GetRun missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing run")
	}
}
