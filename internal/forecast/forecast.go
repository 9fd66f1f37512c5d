// Package forecast defines the capability interface the simulation
// driver uses to obtain next-close predictions, keeping it agnostic to
// the forecasting technique behind it.
package forecast

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

// Provider supplies a predicted next close for a ticker on a date.
// The second return is false when no prediction exists, which the
// caller treats as a HOLD vote. Implementations must never consult
// data dated after the query date.
type Provider interface {
	Predict(ticker string, date time.Time) (models.ForecastPoint, bool)
}

// None is a provider with no predictions; every query abstains.
type None struct{}

func (None) Predict(string, time.Time) (models.ForecastPoint, bool) {
	return models.ForecastPoint{}, false
}

// Static serves predictions from an in-memory table, keyed by ticker
// and date. Deterministic by construction; the standard test double.
type Static struct {
	points map[string]map[string]float64
}

// NewStatic creates an empty static provider.
func NewStatic() *Static {
	return &Static{points: make(map[string]map[string]float64)}
}

// Add registers a prediction for ticker on date.
func (s *Static) Add(ticker string, date time.Time, predicted float64) {
	key := models.DateKey(date)
	if s.points[ticker] == nil {
		s.points[ticker] = make(map[string]float64)
	}
	s.points[ticker][key] = predicted
}

func (s *Static) Predict(ticker string, date time.Time) (models.ForecastPoint, bool) {
	v, ok := s.points[ticker][models.DateKey(date)]
	if !ok {
		return models.ForecastPoint{}, false
	}
	return models.ForecastPoint{Ticker: ticker, Date: date, PredictedClose: v}, true
}

// CSVProvider serves predictions exported by external model training,
// one file per ticker with a header row of "date,predicted_price".
// All rows are loaded up front so the simulation hot path stays free
// of I/O.
type CSVProvider struct {
	static *Static
}

// LoadCSVDir loads every "<TICKER>.csv" in dir. Returns an error if
// the directory cannot be read or any file is malformed; an empty
// directory yields a provider that always abstains.
func LoadCSVDir(dir string) (*CSVProvider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read forecast dir: %w", err)
	}

	p := &CSVProvider{static: NewStatic()}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		ticker := strings.ToUpper(strings.TrimSuffix(e.Name(), ".csv"))
		if err := p.loadFile(ticker, filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *CSVProvider) loadFile(ticker, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open forecast file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("parse forecast csv %s: %w", path, err)
	}

	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue // header
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
		if err != nil {
			return fmt.Errorf("forecast csv %s row %d: bad date %q", path, i+1, row[0])
		}
		predicted, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return fmt.Errorf("forecast csv %s row %d: bad price %q", path, i+1, row[1])
		}
		p.static.Add(ticker, date, predicted)
	}
	return nil
}

func (p *CSVProvider) Predict(ticker string, date time.Time) (models.ForecastPoint, bool) {
	return p.static.Predict(ticker, date)
}
