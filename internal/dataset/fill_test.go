package dataset

import (
	"encoding/csv"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func bar(d time.Time, price float64) models.PriceBar {
	return models.PriceBar{
		Ticker: "AAPL", Date: d,
		Open: price, High: price, Low: price, Close: price, AdjClose: price,
		Volume: 1000,
	}
}

func TestBusinessDaysSkipsWeekends(t *testing.T) {
	days := BusinessDays(monday, monday.AddDate(0, 0, 6)) // Mon..Sun
	if len(days) != 5 {
		t.Fatalf("expected 5 business days, got %d", len(days))
	}
	for _, d := range days {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			t.Fatalf("weekend day included: %v", d)
		}
	}
}

func TestFindGaps(t *testing.T) {
	bars := []models.PriceBar{
		bar(monday, 100),
		bar(monday.AddDate(0, 0, 2), 102), // Wednesday; Tuesday missing
	}
	gaps := FindGaps(bars, monday, monday.AddDate(0, 0, 2))
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}
	if models.DateKey(gaps[0]) != "2024-01-02" {
		t.Fatalf("gap: got %s", models.DateKey(gaps[0]))
	}
}

func TestFillForward(t *testing.T) {
	bars := []models.PriceBar{
		bar(monday, 100),
		bar(monday.AddDate(0, 0, 2), 106),
	}
	filled, err := Fill(bars, monday, monday.AddDate(0, 0, 2), FillForward)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(filled) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(filled))
	}
	if filled[1].Price() != 100 {
		t.Fatalf("forward fill should carry Monday's price, got %f", filled[1].Price())
	}
	if filled[1].Volume != 0 {
		t.Fatalf("synthesized bar should have zero volume, got %d", filled[1].Volume)
	}
	if filled[0].Volume != 1000 || filled[2].Volume != 1000 {
		t.Fatalf("real bars must be kept as-is")
	}
}

func TestFillBackwardAndInterpolate(t *testing.T) {
	bars := []models.PriceBar{
		bar(monday, 100),
		bar(monday.AddDate(0, 0, 2), 106),
	}

	filled, err := Fill(bars, monday, monday.AddDate(0, 0, 2), FillBackward)
	if err != nil {
		t.Fatalf("Fill backward: %v", err)
	}
	if filled[1].Price() != 106 {
		t.Fatalf("backward fill should carry Wednesday's price, got %f", filled[1].Price())
	}

	filled, err = Fill(bars, monday, monday.AddDate(0, 0, 2), FillInterpolate)
	if err != nil {
		t.Fatalf("Fill interpolate: %v", err)
	}
	if math.Abs(filled[1].Price()-103) > 1e-9 {
		t.Fatalf("interpolated Tuesday should be 103, got %f", filled[1].Price())
	}
}

func TestFillEdgesUseNearestBar(t *testing.T) {
	bars := []models.PriceBar{
		bar(monday.AddDate(0, 0, 1), 100), // Tuesday only
	}
	filled, err := Fill(bars, monday, monday.AddDate(0, 0, 2), FillForward)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	// Monday has no earlier bar: nearest (Tuesday) fills it.
	if filled[0].Price() != 100 || filled[2].Price() != 100 {
		t.Fatalf("edge fill: got %f, %f", filled[0].Price(), filled[2].Price())
	}
}

func TestFillRejectsBadInput(t *testing.T) {
	if _, err := Fill(nil, monday, monday, FillForward); err == nil {
		t.Fatalf("empty series accepted")
	}
	if _, err := Fill([]models.PriceBar{bar(monday, 1)}, monday, monday, "bogus"); err == nil {
		t.Fatalf("unknown method accepted")
	}
}

func TestWriteTrainingCSV(t *testing.T) {
	path := TrainingFilePath(t.TempDir(), "AAPL")
	bars := []models.PriceBar{bar(monday, 100), bar(monday.AddDate(0, 0, 1), 101)}

	if err := WriteTrainingCSV(path, bars); err != nil {
		t.Fatalf("WriteTrainingCSV: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][5] != "Adj Close" {
		t.Fatalf("header: %v", records[0])
	}
	if records[1][0] != "2024-01-01" {
		t.Fatalf("first row date: %v", records[1])
	}
}
