package dataflows

import (
	"testing"
)

const sampleStooqCSV = `Date,Open,High,Low,Close,Volume
2024-01-02,185.64,186.95,183.82,185.64,82488700
2024-01-03,184.22,185.88,183.43,184.25,58414500
`

func TestParseStooqCSV(t *testing.T) {
	rows, err := ParseStooqCSV("AAPL", sampleStooqCSV)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Symbol != "AAPL" {
		t.Fatalf("symbol: got %q", first.Symbol)
	}
	if got := first.Date.Format("2006-01-02"); got != "2024-01-02" {
		t.Fatalf("date: got %s", got)
	}
	if first.Close.String() != "185.64" {
		t.Fatalf("close: got %s", first.Close)
	}
	if !first.AdjClose.Equal(first.Close) {
		t.Fatalf("adj close should mirror close, got %s", first.AdjClose)
	}
	if first.Volume != 82488700 {
		t.Fatalf("volume: got %d", first.Volume)
	}
}

func TestParseStooqCSVNoData(t *testing.T) {
	if _, err := ParseStooqCSV("ZZZZ", "No data"); err == nil {
		t.Fatalf("no-data response accepted")
	}
}

func TestParseStooqCSVBadHeader(t *testing.T) {
	if _, err := ParseStooqCSV("AAPL", "Foo,Bar\n1,2\n"); err == nil {
		t.Fatalf("bad header accepted")
	}
}

func TestParseStooqCSVBadPrice(t *testing.T) {
	body := "Date,Open,High,Low,Close,Volume\n2024-01-02,x,1,1,1,1\n"
	if _, err := ParseStooqCSV("AAPL", body); err == nil {
		t.Fatalf("bad price accepted")
	}
}

func TestStooqSymbol(t *testing.T) {
	if got := stooqSymbol("AAPL"); got != "aapl.us" {
		t.Fatalf("got %q", got)
	}
	if got := stooqSymbol("BMW.DE"); got != "bmw.de" {
		t.Fatalf("got %q", got)
	}
}
