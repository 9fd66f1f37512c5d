// Package cli wires the command surface: simulations, data management,
// and portfolio bookkeeping.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stockfolio/stockfolio/config"
	"github.com/stockfolio/stockfolio/internal/backtest"
	"github.com/stockfolio/stockfolio/internal/dataset"
	"github.com/stockfolio/stockfolio/internal/display"
	"github.com/stockfolio/stockfolio/internal/forecast"
	"github.com/stockfolio/stockfolio/internal/metrics"
	"github.com/stockfolio/stockfolio/internal/storage/sqlite"
	"github.com/stockfolio/stockfolio/models"
	"github.com/stockfolio/stockfolio/pkg/dataflows"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "stockfolio",
		Short: "Stockfolio - Indicator-Driven Portfolio Backtesting",
		Long: `Stockfolio simulates a voting trading strategy over historical stock
prices. Price forecasts, Bollinger bands, and RSI each cast a vote per
day; the combined decision drives buys, sells, and exits against a
simulated portfolio.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: prompt for a run interactively.
			return runInteractiveBacktest(cfg)
		},
	}

	rootCmd.AddCommand(newBacktestCmd(cfg))
	rootCmd.AddCommand(newFetchCmd(cfg))
	rootCmd.AddCommand(newFillCmd(cfg))
	rootCmd.AddCommand(newMetricsCmd(cfg))
	rootCmd.AddCommand(newExportCmd(cfg))
	rootCmd.AddCommand(newUserCmd(cfg))
	rootCmd.AddCommand(newPortfolioCmd(cfg))
	rootCmd.AddCommand(newRunsCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// chainProvider reads history from the local store first, falling back
// to the remote data sources and persisting what they return.
type chainProvider struct {
	store *sqlite.Store
	flows *dataflows.DataFlowInterface
}

func (p *chainProvider) History(ticker string, start, end time.Time) ([]models.PriceBar, error) {
	if bars, err := p.store.History(ticker, start, end); err == nil {
		return bars, nil
	}
	bars, err := p.flows.History(ticker, start, end)
	if err != nil {
		return nil, err
	}
	if err := p.store.UpsertBars(context.Background(), bars); err != nil {
		log.Printf("cli: caching %s history failed: %v", ticker, err)
	}
	return bars, nil
}

func openStore(cfg *config.Config) (*sqlite.Store, error) {
	return sqlite.Open(cfg.DBPath)
}

func newPriceProvider(cfg *config.Config, store *sqlite.Store, offline bool) backtest.PriceProvider {
	if offline {
		return store
	}
	return &chainProvider{store: store, flows: dataflows.NewDataFlowInterface(cfg)}
}

func newForecastProvider(dir string) forecast.Provider {
	if dir == "" {
		return forecast.None{}
	}
	if _, err := os.Stat(dir); err != nil {
		return forecast.None{}
	}
	provider, err := forecast.LoadCSVDir(dir)
	if err != nil {
		log.Printf("cli: loading forecasts from %s: %v", dir, err)
		return forecast.None{}
	}
	return provider
}

func buildRunConfig(cfg *config.Config, start, end time.Time) backtest.Config {
	rc := backtest.DefaultConfig(start, end)
	s := cfg.Strategy
	if s.InitialCapital > 0 {
		rc.InitialCapital = s.InitialCapital
	}
	if s.ForecastEpsilon > 0 {
		rc.ForecastEpsilon = s.ForecastEpsilon
	}
	if s.BaseFraction > 0 {
		rc.BaseFraction = s.BaseFraction
	}
	rc.BootstrapFraction = s.BootstrapFraction
	if s.TakeProfitPct > 0 {
		rc.TakeProfitPct = s.TakeProfitPct
	}
	if s.StopLossPct > 0 {
		rc.StopLossPct = s.StopLossPct
	}
	if s.StrongAdversePct > 0 {
		rc.StrongAdversePct = s.StrongAdversePct
	}
	if s.RiskFreeRate > 0 {
		rc.RiskFreeRate = s.RiskFreeRate
	}
	rc.RequireTrendUp = s.RequireTrendUp
	rc.LiquidityFallback = s.LiquidityFallback
	return rc
}

func newBacktestCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest [TICKER...]",
		Short: "Run a simulation over historical prices",
		Long: `Simulate the voting strategy over a date range.
Example: stockfolio backtest AAPL MSFT --start=2023-01-01 --end=2024-01-01 --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startStr, _ := cmd.Flags().GetString("start")
			endStr, _ := cmd.Flags().GetString("end")
			save, _ := cmd.Flags().GetBool("save")
			offline, _ := cmd.Flags().GetBool("offline")
			forecastDir, _ := cmd.Flags().GetString("forecast-dir")

			start, err := dataflows.ParseDateString(startStr)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := dataflows.ParseDateString(endStr)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			if forecastDir == "" {
				forecastDir = cfg.ForecastDir
			}

			tickers := args
			return runBacktest(cmd.Context(), cfg, tickers, start, end, forecastDir, save, offline)
		},
	}

	cmd.Flags().String("start", "", "Simulation start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Simulation end date (YYYY-MM-DD)")
	cmd.Flags().String("forecast-dir", "", "Directory of per-ticker forecast CSV files")
	cmd.Flags().Bool("save", false, "Persist the run and its trades")
	cmd.Flags().Bool("offline", false, "Use only locally stored price data")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func runInteractiveBacktest(cfg *config.Config) error {
	tickers, err := PromptForTickers()
	if err != nil {
		return err
	}
	start, end, err := PromptForDateRange()
	if err != nil {
		return err
	}
	save, err := PromptForConfirmation("Save this run to the database?")
	if err != nil {
		return err
	}
	return runBacktest(context.Background(), cfg, tickers, start, end, cfg.ForecastDir, save, false)
}

func runBacktest(ctx context.Context, cfg *config.Config, tickers []string,
	start, end time.Time, forecastDir string, save, offline bool) error {

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	prices := newPriceProvider(cfg, store, offline)
	predictor := newForecastProvider(forecastDir)

	display.Info(fmt.Sprintf("Simulating %d ticker(s) from %s",
		len(tickers), dataflows.FormatDateRange(start, end)))

	res, err := backtest.Run(ctx, prices, predictor, tickers, buildRunConfig(cfg, start, end))
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Print(display.RenderResult(res))
	fmt.Print(display.RenderTrades(res.Trades))

	if save {
		id, err := store.SaveRun(ctx, res)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		display.Success(fmt.Sprintf("Run saved as %s", id))
	}

	return nil
}

func newFetchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [TICKER...]",
		Short: "Fetch historical prices and store them locally",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startStr, _ := cmd.Flags().GetString("start")
			endStr, _ := cmd.Flags().GetString("end")

			start, err := dataflows.ParseDateString(startStr)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := dataflows.ParseDateString(endStr)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			flows := dataflows.NewDataFlowInterface(cfg)
			for _, ticker := range args {
				bars, err := flows.History(ticker, start, end)
				if err != nil {
					display.Error(fmt.Errorf("fetch %s: %w", ticker, err))
					continue
				}
				if err := store.UpsertBars(cmd.Context(), bars); err != nil {
					return fmt.Errorf("store %s: %w", ticker, err)
				}
				display.Success(fmt.Sprintf("%s: stored %d bars", ticker, len(bars)))
			}
			return nil
		},
	}

	cmd.Flags().String("start", "", "First date to fetch (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Last date to fetch (YYYY-MM-DD)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func newFillCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill TICKER",
		Short: "Fill calendar gaps in stored price history",
		Long: `Synthesize bars for business days missing from the stored history.
Filled bars carry zero volume so they remain distinguishable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := args[0]
			method, _ := cmd.Flags().GetString("method")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			start, end, err := store.DateRange(cmd.Context(), ticker)
			if err != nil {
				return err
			}

			bars, err := store.HistoryContext(cmd.Context(), ticker, start, end)
			if err != nil {
				return err
			}

			gaps := dataset.FindGaps(bars, start, end)
			if len(gaps) == 0 {
				display.Info(fmt.Sprintf("%s: no gaps between %s", ticker,
					dataflows.FormatDateRange(start, end)))
				return nil
			}

			if dryRun {
				fmt.Printf("%s: %d missing business day(s):\n", ticker, len(gaps))
				for _, d := range gaps {
					fmt.Printf("  %s\n", models.DateKey(d))
				}
				return nil
			}

			filled, err := dataset.Fill(bars, start, end, dataset.FillMethod(method))
			if err != nil {
				return err
			}
			if err := store.UpsertBars(cmd.Context(), filled); err != nil {
				return fmt.Errorf("store filled bars: %w", err)
			}
			display.Success(fmt.Sprintf("%s: filled %d gap(s) with %s", ticker, len(gaps), method))
			return nil
		},
	}

	cmd.Flags().String("method", string(dataset.FillInterpolate),
		"Fill method: forward, backward, or interpolate")
	cmd.Flags().Bool("dry-run", false, "List the gaps without writing anything")

	return cmd
}

func newMetricsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [TICKER...]",
		Short: "Compute and store per-symbol statistics",
		Long:  "Derive daily return, cumulative return, and 30-day rolling volatility from stored history.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, ticker := range args {
				start, end, err := store.DateRange(cmd.Context(), ticker)
				if err != nil {
					display.Error(err)
					continue
				}
				bars, err := store.HistoryContext(cmd.Context(), ticker, start, end)
				if err != nil {
					return err
				}

				points := metrics.Compute(bars)
				records := make([]sqlite.MetricRecord, len(points))
				for i, p := range points {
					records[i] = sqlite.MetricRecord{
						Ticker:           p.Ticker,
						Date:             p.Date,
						DailyReturn:      p.DailyReturn,
						CumulativeReturn: p.CumulativeReturn,
						Volatility30D:    p.Volatility30D,
					}
				}
				if err := store.UpsertMetrics(cmd.Context(), records); err != nil {
					return fmt.Errorf("store metrics for %s: %w", ticker, err)
				}

				stats := metrics.Summarize(points)
				fmt.Printf("%s: %d days | avg daily %+.3f%% | cumulative %+.2f%% | volatility %.2f%%\n",
					ticker, stats.Days, stats.AvgDailyReturn*100,
					stats.CumulativeReturn*100, stats.Volatility*100)
			}
			return nil
		},
	}
}

func newExportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export TICKER",
		Short: "Export stored history as a model training CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := args[0]
			outDir, _ := cmd.Flags().GetString("out")
			fillMethod, _ := cmd.Flags().GetString("fill")

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			start, end, err := store.DateRange(cmd.Context(), ticker)
			if err != nil {
				return err
			}
			bars, err := store.HistoryContext(cmd.Context(), ticker, start, end)
			if err != nil {
				return err
			}

			if fillMethod != "" {
				bars, err = dataset.Fill(bars, start, end, dataset.FillMethod(fillMethod))
				if err != nil {
					return err
				}
			}

			path := dataset.TrainingFilePath(outDir, ticker)
			if err := dataset.WriteTrainingCSV(path, bars); err != nil {
				return err
			}
			display.Success(fmt.Sprintf("%s: exported %d rows to %s", ticker, len(bars), path))
			return nil
		},
	}

	cmd.Flags().String("out", "data/training", "Output directory")
	cmd.Flags().String("fill", "", "Optionally fill gaps first: forward, backward, or interpolate")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("stockfolio v1.0.0")
			fmt.Println("Indicator-driven portfolio backtesting")
		},
	}
}
