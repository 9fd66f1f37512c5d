package dataflows

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// StooqClient fetches daily history from stooq.com, used as a fallback
// when Yahoo Finance is unavailable. Stooq serves plain CSV and needs
// no API key.
type StooqClient struct {
	client *resty.Client
	cache  *CacheManager
}

// NewStooqClient creates a new Stooq client
func NewStooqClient(config *Config) *StooqClient {
	cacheDir := filepath.Join(config.DataCacheDir, "stooq")
	cache := NewCacheManager(cacheDir, 24*time.Hour, config.CacheEnabled)

	client := resty.New()
	client.SetBaseURL("https://stooq.com")
	client.SetTimeout(30 * time.Second)

	return &StooqClient{
		client: client,
		cache:  cache,
	}
}

// GetHistoricalData gets daily historical price data for a symbol.
// Plain US symbols get the ".us" suffix Stooq expects.
func (sc *StooqClient) GetHistoricalData(symbol string, start, end time.Time) ([]*MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}

	var cached []*MarketData
	if sc.cache.Get("stooq", "historical", cacheKey, &cached) {
		return cached, nil
	}

	var result []*MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := sc.client.R().
			SetQueryParams(map[string]string{
				"s":  stooqSymbol(symbol),
				"d1": start.Format("20060102"),
				"d2": end.Format("20060102"),
				"i":  "d",
			}).
			Get("/q/d/l/")

		if err != nil {
			return fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("stooq returned status %d for %s", resp.StatusCode(), symbol)
		}

		result, err = ParseStooqCSV(symbol, string(resp.Body()))
		if err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sc.cache.Set("stooq", "historical", cacheKey, result)

	return result, nil
}

// ParseStooqCSV parses Stooq's "Date,Open,High,Low,Close,Volume" daily
// CSV export. Stooq publishes split-adjusted closes, so AdjClose
// mirrors Close.
func ParseStooqCSV(symbol, body string) ([]*MarketData, error) {
	if strings.HasPrefix(strings.TrimSpace(body), "No data") {
		return nil, fmt.Errorf("stooq has no data for %s", symbol)
	}

	reader := csv.NewReader(strings.NewReader(body))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse stooq csv for %s: %w", symbol, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("stooq returned no rows for %s", symbol)
	}
	if len(records[0]) < 5 || records[0][0] != "Date" {
		return nil, fmt.Errorf("unexpected stooq header for %s: %v", symbol, records[0])
	}

	result := make([]*MarketData, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) < 5 {
			continue
		}

		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("bad stooq date %q for %s: %w", row[0], symbol, err)
		}

		open, err := decimal.NewFromString(row[1])
		if err != nil {
			return nil, fmt.Errorf("bad stooq open %q for %s: %w", row[1], symbol, err)
		}
		high, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, fmt.Errorf("bad stooq high %q for %s: %w", row[2], symbol, err)
		}
		low, err := decimal.NewFromString(row[3])
		if err != nil {
			return nil, fmt.Errorf("bad stooq low %q for %s: %w", row[3], symbol, err)
		}
		closePrice, err := decimal.NewFromString(row[4])
		if err != nil {
			return nil, fmt.Errorf("bad stooq close %q for %s: %w", row[4], symbol, err)
		}

		var volume int64
		if len(row) > 5 && row[5] != "" {
			volume, err = strconv.ParseInt(row[5], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad stooq volume %q for %s: %w", row[5], symbol, err)
			}
		}

		result = append(result, &MarketData{
			Symbol:    symbol,
			Date:      date,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			AdjClose:  closePrice,
			Volume:    volume,
			Timestamp: time.Now(),
		})
	}

	return result, nil
}

// stooqSymbol maps a plain US ticker to Stooq's naming scheme.
func stooqSymbol(symbol string) string {
	if strings.Contains(symbol, ".") {
		return strings.ToLower(symbol)
	}
	return strings.ToLower(symbol) + ".us"
}
