// Package display renders simulation results for the terminal.
package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockfolio/stockfolio/internal/backtest"
	"github.com/stockfolio/stockfolio/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(72)

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))
)

// RenderResult formats a finished run as a styled report.
func RenderResult(res *backtest.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Backtest Results"))
	b.WriteString("\n")

	var panel strings.Builder
	panel.WriteString(fmt.Sprintf("Period:   %s to %s\n",
		res.Config.Start.Format("2006-01-02"), res.Config.End.Format("2006-01-02")))
	panel.WriteString(fmt.Sprintf("Tickers:  %s\n", strings.Join(res.Tickers, ", ")))
	panel.WriteString(fmt.Sprintf("Capital:  %s\n\n", formatMoney(res.Config.InitialCapital)))

	s := res.Summary
	panel.WriteString(fmt.Sprintf("Final Value:        %s\n", formatMoney(s.FinalValue)))
	panel.WriteString(fmt.Sprintf("Total Return:       %s\n", coloredPercent(s.TotalReturn)))
	panel.WriteString(fmt.Sprintf("Annualized Return:  %s\n", coloredPercent(s.AnnualizedReturn)))
	panel.WriteString(fmt.Sprintf("Sharpe Ratio:       %s\n", formatRatio(s.SharpeRatio)))
	panel.WriteString(fmt.Sprintf("Max Drawdown:       %s\n", coloredPercent(s.MaxDrawdown)))
	panel.WriteString(fmt.Sprintf("Volatility:         %s\n", formatPercent(s.Volatility)))
	panel.WriteString(fmt.Sprintf("Trading Days:       %d\n", s.TradingDays))
	panel.WriteString(fmt.Sprintf("Trades Executed:    %d", s.NumTrades))

	b.WriteString(panelStyle.Render(panel.String()))
	b.WriteString("\n")

	if len(res.FinalPositions) > 0 {
		b.WriteString(renderPositions(res.FinalPositions))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderTrades formats the trade log, most recent last.
func RenderTrades(trades []models.Trade) string {
	if len(trades) == 0 {
		return dimStyle.Render("No trades executed.") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Trade Log"))
	b.WriteString("\n")

	var rows strings.Builder
	rows.WriteString(fmt.Sprintf("%-12s %-8s %-5s %10s %12s\n", "Date", "Ticker", "Side", "Shares", "Price"))
	for _, t := range trades {
		side := string(t.Side)
		if t.Side == models.SideBuy {
			side = gainStyle.Render(side)
		} else {
			side = lossStyle.Render(side)
		}
		rows.WriteString(fmt.Sprintf("%-12s %-8s %-5s %10d %12s\n",
			models.DateKey(t.Date), t.Ticker, side, t.Shares, formatMoney(t.Price)))
	}

	b.WriteString(panelStyle.Render(strings.TrimRight(rows.String(), "\n")))
	b.WriteString("\n")
	return b.String()
}

func renderPositions(positions []models.Position) string {
	var rows strings.Builder
	rows.WriteString("Open Positions\n\n")
	rows.WriteString(fmt.Sprintf("%-8s %10s %14s\n", "Ticker", "Shares", "Avg Entry"))
	for _, p := range positions {
		rows.WriteString(fmt.Sprintf("%-8s %10d %14s\n", p.Ticker, p.Shares, formatMoney(p.AvgEntry)))
	}
	return panelStyle.Render(strings.TrimRight(rows.String(), "\n"))
}

// Error prints a styled error message.
func Error(err error) {
	fmt.Println(errorStyle.Render(fmt.Sprintf("error: %v", err)))
}

// Success prints a styled confirmation message.
func Success(message string) {
	fmt.Println(successStyle.Render(message))
}

// Info prints a dimmed informational message.
func Info(message string) {
	fmt.Println(dimStyle.Render(message))
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func formatPercent(v float64) string {
	if math.IsNaN(v) {
		return dimStyle.Render("n/a")
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func coloredPercent(v float64) string {
	if math.IsNaN(v) {
		return dimStyle.Render("n/a")
	}
	s := fmt.Sprintf("%+.2f%%", v*100)
	if v < 0 {
		return lossStyle.Render(s)
	}
	return gainStyle.Render(s)
}

func formatRatio(v float64) string {
	if math.IsNaN(v) {
		return dimStyle.Render("n/a")
	}
	return fmt.Sprintf("%.2f", v)
}
