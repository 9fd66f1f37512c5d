package signal

import (
	"testing"

	"github.com/stockfolio/stockfolio/models"
)

func reading(kind models.IndicatorKind, vote models.Vote) models.IndicatorReading {
	return models.IndicatorReading{Kind: kind, Vote: vote}
}

func TestCombine(t *testing.T) {
	cases := []struct {
		name     string
		readings []models.IndicatorReading
		want     models.Vote
	}{
		{
			name: "opposing votes hold",
			readings: []models.IndicatorReading{
				reading(models.KindForecast, models.VoteBuy),
				reading(models.KindBollinger, models.VoteSell),
			},
			want: models.VoteHold,
		},
		{
			name: "buy with hold buys",
			readings: []models.IndicatorReading{
				reading(models.KindForecast, models.VoteBuy),
				reading(models.KindRSI, models.VoteHold),
			},
			want: models.VoteBuy,
		},
		{
			name: "single sell sells",
			readings: []models.IndicatorReading{
				reading(models.KindBollinger, models.VoteSell),
			},
			want: models.VoteSell,
		},
		{
			name: "majority buy over one sell",
			readings: []models.IndicatorReading{
				reading(models.KindForecast, models.VoteBuy),
				reading(models.KindBollinger, models.VoteBuy),
				reading(models.KindRSI, models.VoteSell),
			},
			want: models.VoteBuy,
		},
		{
			name: "majority sell over one buy",
			readings: []models.IndicatorReading{
				reading(models.KindForecast, models.VoteSell),
				reading(models.KindBollinger, models.VoteSell),
				reading(models.KindRSI, models.VoteBuy),
			},
			want: models.VoteSell,
		},
		{
			name:     "no readings hold",
			readings: nil,
			want:     models.VoteHold,
		},
		{
			name: "all hold holds",
			readings: []models.IndicatorReading{
				reading(models.KindForecast, models.VoteHold),
				reading(models.KindBollinger, models.VoteHold),
				reading(models.KindRSI, models.VoteHold),
			},
			want: models.VoteHold,
		},
	}

	for _, tc := range cases {
		if got := Combine(tc.readings); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCombineOrderIndependent(t *testing.T) {
	a := []models.IndicatorReading{
		reading(models.KindForecast, models.VoteBuy),
		reading(models.KindBollinger, models.VoteSell),
		reading(models.KindRSI, models.VoteBuy),
	}
	b := []models.IndicatorReading{a[2], a[0], a[1]}
	if Combine(a) != Combine(b) {
		t.Fatalf("decision must not depend on reading order")
	}
}
