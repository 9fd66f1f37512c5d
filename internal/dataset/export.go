package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/stockfolio/stockfolio/models"
)

// trainingHeader matches the yfinance download format the forecasting
// models are trained on.
var trainingHeader = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// WriteTrainingCSV writes bars as a training file, one row per day in
// the order given.
func WriteTrainingCSV(path string, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return fmt.Errorf("no bars to export")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(trainingHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range bars {
		row := []string{
			models.DateKey(b.Date),
			strconv.FormatFloat(b.Open, 'f', 6, 64),
			strconv.FormatFloat(b.High, 'f', 6, 64),
			strconv.FormatFloat(b.Low, 'f', 6, 64),
			strconv.FormatFloat(b.Close, 'f', 6, 64),
			strconv.FormatFloat(b.AdjClose, 'f', 6, 64),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", models.DateKey(b.Date), err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

// TrainingFilePath is the conventional location of a ticker's export.
func TrainingFilePath(dir, ticker string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.csv", ticker))
}
