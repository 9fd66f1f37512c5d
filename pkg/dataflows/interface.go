package dataflows

import (
	"fmt"
	"log"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

// DataFlowInterface provides high-level access to all price data
// sources: saved offline files first, then Yahoo Finance, then Stooq.
type DataFlowInterface struct {
	yahooFinance *YahooFinanceClient
	stooq        *StooqClient
	config       *Config
}

// NewDataFlowInterface creates a new data flow interface
func NewDataFlowInterface(config *Config) *DataFlowInterface {
	return &DataFlowInterface{
		yahooFinance: NewYahooFinanceClient(config),
		stooq:        NewStooqClient(config),
		config:       config,
	}
}

// GetHistoricalData gets daily historical data, offline first
func (dfi *DataFlowInterface) GetHistoricalData(symbol string, start, end time.Time) ([]*MarketData, error) {
	if data, err := dfi.yahooFinance.GetOfflineData(symbol, start, end, dfi.config); err == nil {
		return data, nil
	}

	if !dfi.config.OnlineTools {
		return nil, fmt.Errorf("offline data not available for %s and online tools disabled", symbol)
	}

	data, err := dfi.yahooFinance.GetHistoricalData(symbol, start, end)
	if err == nil && len(data) > 0 {
		return data, nil
	}
	if err != nil {
		log.Printf("dataflows: yahoo failed for %s, trying stooq: %v", symbol, err)
	}

	data, serr := dfi.stooq.GetHistoricalData(symbol, start, end)
	if serr != nil {
		if err != nil {
			return nil, fmt.Errorf("all sources failed for %s: yahoo: %v; stooq: %w", symbol, err, serr)
		}
		return nil, serr
	}

	return data, nil
}

// GetQuote gets a real-time quote
func (dfi *DataFlowInterface) GetQuote(symbol string) (*MarketData, error) {
	if !dfi.config.OnlineTools {
		return nil, fmt.Errorf("online tools are disabled")
	}

	return dfi.yahooFinance.GetQuote(symbol)
}

// GetHistoricalDataWindow gets data for a rolling window of days
func (dfi *DataFlowInterface) GetHistoricalDataWindow(symbol string, days int) ([]*MarketData, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	return dfi.GetHistoricalData(symbol, start, end)
}

// History implements the simulation's price provider over the fallback
// chain, converting source rows into bars in ascending date order.
func (dfi *DataFlowInterface) History(ticker string, start, end time.Time) ([]models.PriceBar, error) {
	data, err := dfi.GetHistoricalData(ticker, start, end)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no price data for %s (%s)", ticker, FormatDateRange(start, end))
	}
	return ToPriceBars(data), nil
}

// SaveOffline persists fetched data for later offline runs
func (dfi *DataFlowInterface) SaveOffline(symbol string, start, end time.Time, data []*MarketData) error {
	return SaveOfflineData(dfi.config, symbol, start, end, data)
}

// ValidateAndNormalizeSymbol validates and normalizes a stock symbol
func (dfi *DataFlowInterface) ValidateAndNormalizeSymbol(symbol string) (string, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return "", err
	}
	return NormalizeSymbol(symbol), nil
}

// GetMultipleSymbolsData gets market data for multiple symbols,
// skipping the ones that fail
func (dfi *DataFlowInterface) GetMultipleSymbolsData(symbols []string, start, end time.Time) (map[string][]*MarketData, error) {
	result := make(map[string][]*MarketData)

	for _, symbol := range symbols {
		data, err := dfi.GetHistoricalData(symbol, start, end)
		if err != nil {
			log.Printf("dataflows: skipping %s: %v", symbol, err)
			continue
		}
		result[symbol] = data
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no data fetched for any of %d symbols", len(symbols))
	}

	return result, nil
}
