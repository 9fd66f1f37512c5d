package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stockfolio/stockfolio/config"
	"github.com/stockfolio/stockfolio/internal/display"
	"github.com/stockfolio/stockfolio/internal/storage/sqlite"
)

func newUserCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.CreateUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			display.Success(fmt.Sprintf("Created user %s (%s)", rec.Name, rec.ID))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			users, err := store.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				display.Info("No users found.")
				return nil
			}
			fmt.Printf("%-38s %-20s %s\n", "ID", "Name", "Created")
			for _, u := range users {
				fmt.Printf("%-38s %-20s %s\n", u.ID, u.Name, u.CreatedAt)
			}
			return nil
		},
	})

	deleteCmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a user and all their portfolios",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := store.GetUserByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("user %s not found", args[0])
			}

			if !yes {
				confirmed, err := PromptForConfirmation(
					fmt.Sprintf("Delete user %s and all their portfolios?", user.Name))
				if err != nil {
					return err
				}
				if !confirmed {
					display.Info("Aborted.")
					return nil
				}
			}

			if err := store.DeleteUser(cmd.Context(), user.ID); err != nil {
				return err
			}
			display.Success(fmt.Sprintf("Deleted user %s", user.Name))
			return nil
		},
	}
	deleteCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	cmd.AddCommand(deleteCmd)

	return cmd
}

func newPortfolioCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Manage portfolios and their holdings",
	}

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a portfolio for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userName, _ := cmd.Flags().GetString("user")
			cash, _ := cmd.Flags().GetFloat64("cash")

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := store.GetUserByName(cmd.Context(), userName)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("user %s not found", userName)
			}

			rec, err := store.CreatePortfolio(cmd.Context(), user.ID, args[0], cash)
			if err != nil {
				return err
			}
			display.Success(fmt.Sprintf("Created portfolio %s (%s) with $%.2f cash",
				rec.Name, rec.ID, rec.Cash))
			return nil
		},
	}
	createCmd.Flags().String("user", "", "Owning user name")
	createCmd.Flags().Float64("cash", 0, "Initial cash balance")
	createCmd.MarkFlagRequired("user")
	cmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's portfolios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userName, _ := cmd.Flags().GetString("user")

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := store.GetUserByName(cmd.Context(), userName)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("user %s not found", userName)
			}

			portfolios, err := store.ListPortfolios(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			if len(portfolios) == 0 {
				display.Info("No portfolios found.")
				return nil
			}
			fmt.Printf("%-38s %-20s %12s\n", "ID", "Name", "Cash")
			for _, p := range portfolios {
				fmt.Printf("%-38s %-20s %12.2f\n", p.ID, p.Name, p.Cash)
			}
			return nil
		},
	}
	listCmd.Flags().String("user", "", "Owning user name")
	listCmd.MarkFlagRequired("user")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show PORTFOLIO_ID",
		Short: "Show a portfolio and its holdings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.GetPortfolio(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("portfolio %s not found", args[0])
			}

			holdings, err := store.ListHoldings(cmd.Context(), p.ID)
			if err != nil {
				return err
			}

			fmt.Printf("Portfolio: %s (%s)\n", p.Name, p.ID)
			fmt.Printf("Cash:      $%.2f\n", p.Cash)
			if len(holdings) == 0 {
				display.Info("No holdings.")
				return nil
			}
			fmt.Printf("\n%-8s %10s %14s\n", "Ticker", "Shares", "Avg Entry")
			for _, h := range holdings {
				fmt.Printf("%-8s %10d %14.2f\n", h.Ticker, h.Shares, h.AvgEntry)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add PORTFOLIO_ID TICKER SHARES AVG_ENTRY",
		Short: "Add or update a holding",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid share count %q: %w", args[2], err)
			}
			avgEntry, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid entry price %q: %w", args[3], err)
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ticker := strings.ToUpper(strings.TrimSpace(args[1]))
			err = store.UpsertHolding(cmd.Context(), sqlite.HoldingRecord{
				PortfolioID: args[0],
				Ticker:      ticker,
				Shares:      shares,
				AvgEntry:    avgEntry,
			})
			if err != nil {
				return err
			}
			display.Success(fmt.Sprintf("Recorded %d %s @ $%.2f", shares, ticker, avgEntry))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove PORTFOLIO_ID TICKER",
		Short: "Remove a holding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ticker := strings.ToUpper(strings.TrimSpace(args[1]))
			if err := store.RemoveHolding(cmd.Context(), args[0], ticker); err != nil {
				return err
			}
			display.Success(fmt.Sprintf("Removed %s", ticker))
			return nil
		},
	})

	deleteCmd := &cobra.Command{
		Use:   "delete PORTFOLIO_ID",
		Short: "Delete a portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.GetPortfolio(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("portfolio %s not found", args[0])
			}

			if !yes {
				confirmed, err := PromptForConfirmation(
					fmt.Sprintf("Delete portfolio %s and its holdings?", p.Name))
				if err != nil {
					return err
				}
				if !confirmed {
					display.Info("Aborted.")
					return nil
				}
			}

			if err := store.DeletePortfolio(cmd.Context(), p.ID); err != nil {
				return err
			}
			display.Success(fmt.Sprintf("Deleted portfolio %s", p.Name))
			return nil
		},
	}
	deleteCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	cmd.AddCommand(deleteCmd)

	return cmd
}

func newRunsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect saved simulation runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				display.Info("No saved runs.")
				return nil
			}

			fmt.Printf("%-38s %-24s %-24s %10s\n", "ID", "Period", "Tickers", "Return")
			for _, r := range runs {
				period := fmt.Sprintf("%s to %s", r.StartDate, r.EndDate)
				tickers := strings.Join(r.Tickers, ",")
				if len(tickers) > 22 {
					tickers = tickers[:19] + "..."
				}
				fmt.Printf("%-38s %-24s %-24s %9.2f%%\n",
					r.ID, period, tickers, r.Summary.TotalReturn*100)
			}
			return nil
		},
	}
	listCmd.Flags().Int("limit", 50, "Maximum number of runs to list")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one saved run and its trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}

			trades, err := store.RunTrades(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			fmt.Printf("Run:      %s (saved %s)\n", run.ID, run.CreatedAt)
			fmt.Printf("Period:   %s to %s\n", run.StartDate, run.EndDate)
			fmt.Printf("Tickers:  %s\n", strings.Join(run.Tickers, ", "))
			fmt.Printf("Capital:  $%.2f\n\n", run.Config.InitialCapital)

			s := run.Summary
			fmt.Printf("Final Value:        $%.2f\n", s.FinalValue)
			fmt.Printf("Total Return:       %+.2f%%\n", s.TotalReturn*100)
			fmt.Printf("Max Drawdown:       %+.2f%%\n", s.MaxDrawdown*100)
			fmt.Printf("Trades Executed:    %d\n\n", s.NumTrades)

			fmt.Print(display.RenderTrades(trades))
			return nil
		},
	})

	return cmd
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the resolved configuration for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			display.Success("Configuration is valid.")
			return nil
		},
	})

	return cmd
}
