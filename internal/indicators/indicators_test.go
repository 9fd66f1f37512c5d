package indicators

import (
	"math"
	"testing"

	"github.com/stockfolio/stockfolio/models"
)

func TestBollingerAbstainsOnShortHistory(t *testing.T) {
	closes := make([]float64, 19)
	for i := range closes {
		closes[i] = 100
	}
	if _, ok := Bollinger(closes, 100); ok {
		t.Fatalf("expected abstention with 19 closes")
	}
}

func TestBollingerVotes(t *testing.T) {
	// 20 closes around 100 with modest spread, then probe the edges.
	closes := make([]float64, 20)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 99
		} else {
			closes[i] = 101
		}
	}
	// mean=100, sample std ≈ 1.026 → band ≈ [97.95, 102.05]

	reading, ok := Bollinger(closes, 90)
	if !ok || reading.Vote != models.VoteBuy {
		t.Fatalf("price below lower band: got %v ok=%v", reading.Vote, ok)
	}

	reading, ok = Bollinger(closes, 110)
	if !ok || reading.Vote != models.VoteSell {
		t.Fatalf("price above upper band: got %v ok=%v", reading.Vote, ok)
	}

	reading, ok = Bollinger(closes, 100)
	if !ok || reading.Vote != models.VoteHold {
		t.Fatalf("price inside band: got %v ok=%v", reading.Vote, ok)
	}
}

func TestRSIAbstainsOnShortHistory(t *testing.T) {
	closes := []float64{100, 101, 102}
	if _, ok := RSI(closes); ok {
		t.Fatalf("expected abstention with too few closes")
	}
}

func TestRSIZeroLossHolds(t *testing.T) {
	// Strictly rising closes: no negative changes in the window.
	closes := make([]float64, RSIPeriod+1)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	reading, ok := RSI(closes)
	if !ok {
		t.Fatalf("expected a reading")
	}
	if reading.Vote != models.VoteHold {
		t.Fatalf("zero-loss window should HOLD, got %v", reading.Vote)
	}
}

func TestRSIOversoldBuys(t *testing.T) {
	// Mostly falling closes with one small gain keeps RSI well below 30.
	closes := []float64{100, 99, 98, 97, 96, 95, 94, 93, 92, 91, 90, 89, 88, 88.1, 87}
	reading, ok := RSI(closes)
	if !ok {
		t.Fatalf("expected a reading")
	}
	if reading.Vote != models.VoteBuy {
		t.Fatalf("oversold window should BUY, got %v", reading.Vote)
	}
}

func TestForecastVoteThresholds(t *testing.T) {
	cases := []struct {
		name      string
		predicted float64
		epsilon   float64
		want      models.Vote
	}{
		{"above epsilon", 101, 1e-4, models.VoteBuy},
		{"below negative epsilon", 99, 1e-4, models.VoteSell},
		{"inside band", 100.000001, 1e-4, models.VoteHold},
		{"learned model threshold", 100.5, 0.01, models.VoteHold},
	}
	for _, tc := range cases {
		fp := models.ForecastPoint{Ticker: "AAPL", PredictedClose: tc.predicted}
		reading := ForecastVote(fp, true, 100, tc.epsilon)
		if reading.Vote != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, reading.Vote, tc.want)
		}
	}
}

func TestForecastVoteMissingHolds(t *testing.T) {
	reading := ForecastVote(models.ForecastPoint{}, false, 100, 1e-4)
	if reading.Vote != models.VoteHold {
		t.Fatalf("missing forecast should HOLD, got %v", reading.Vote)
	}
	if reading.Kind != models.KindForecast {
		t.Fatalf("unexpected kind %v", reading.Kind)
	}
}

func TestTrendUp(t *testing.T) {
	rising := []float64{100, 101, 102, 103, 104, 105}
	if !TrendUp(rising) {
		t.Fatalf("rising series should trend up")
	}
	falling := []float64{105, 104, 103, 102, 101, 100}
	if TrendUp(falling) {
		t.Fatalf("falling series should not trend up")
	}
	if !TrendUp([]float64{100, 101}) {
		t.Fatalf("unknown trend defaults to up")
	}
}

func TestBollingerSampleStdDev(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 99
		} else {
			closes[i] = 101
		}
	}
	// Sample variance of alternating 99/101 around 100 is 20/19.
	sigma := math.Sqrt(20.0 / 19.0)
	lower := 100 - 2*sigma
	reading, ok := Bollinger(closes, lower+0.001)
	if !ok || reading.Vote != models.VoteHold {
		t.Fatalf("just inside lower band should HOLD, got %v", reading.Vote)
	}
	reading, ok = Bollinger(closes, lower-0.001)
	if !ok || reading.Vote != models.VoteBuy {
		t.Fatalf("just below lower band should BUY, got %v", reading.Vote)
	}
}
