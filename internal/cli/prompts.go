package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// PromptForTickers prompts for a comma-separated list of symbols.
func PromptForTickers() ([]string, error) {
	var input string
	prompt := &survey.Input{
		Message: "Enter ticker symbols, comma separated (e.g., AAPL,MSFT,GOOGL):",
		Help:    "Each symbol may use letters, numbers, dots, and hyphens.",
	}

	err := survey.AskOne(prompt, &input, survey.WithValidator(func(val interface{}) error {
		tickers, err := parseTickerList(val.(string))
		if err != nil {
			return err
		}
		if len(tickers) == 0 {
			return fmt.Errorf("at least one ticker is required")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	return parseTickerList(input)
}

func parseTickerList(input string) ([]string, error) {
	var tickers []string
	for _, part := range strings.Split(input, ",") {
		t := strings.TrimSpace(strings.ToUpper(part))
		if t == "" {
			continue
		}
		if len(t) > 10 {
			return nil, fmt.Errorf("ticker %s too long (max 10 characters)", t)
		}
		if !tickerPattern.MatchString(t) {
			return nil, fmt.Errorf("invalid ticker format: %s", t)
		}
		tickers = append(tickers, t)
	}
	return tickers, nil
}

// PromptForDateRange prompts for a simulation start and end date.
func PromptForDateRange() (time.Time, time.Time, error) {
	start, err := promptForDate("Enter the start date (YYYY-MM-DD):",
		time.Now().AddDate(-1, 0, 0))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	end, err := promptForDate("Enter the end date (YYYY-MM-DD):", time.Now())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}

func promptForDate(message string, def time.Time) (time.Time, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: message,
		Default: def.Format("2006-01-02"),
	}

	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil
		}
		if _, err := time.Parse("2006-01-02", str); err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		return nil
	}))
	if err != nil {
		return time.Time{}, err
	}

	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return def, nil
	}
	return time.Parse("2006-01-02", dateStr)
}

// PromptForConfirmation asks a yes/no question, defaulting to no.
func PromptForConfirmation(message string) (bool, error) {
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}
