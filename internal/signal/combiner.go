// Package signal turns per-indicator readings into one trade decision.
package signal

import "github.com/stockfolio/stockfolio/models"

// Combine applies the majority-with-veto policy to the available
// readings for one ticker on one date:
//
//   - any BUY votes and no SELL votes → BUY
//   - any SELL votes and no BUY votes → SELL
//   - otherwise the larger count wins; ties resolve to HOLD
//
// The result is independent of reading order. Indicators that
// abstained simply do not appear in the slice.
func Combine(readings []models.IndicatorReading) models.Vote {
	var buys, sells int
	for _, r := range readings {
		switch r.Vote {
		case models.VoteBuy:
			buys++
		case models.VoteSell:
			sells++
		}
	}

	switch {
	case buys > 0 && sells == 0:
		return models.VoteBuy
	case sells > 0 && buys == 0:
		return models.VoteSell
	case buys > sells:
		return models.VoteBuy
	case sells > buys:
		return models.VoteSell
	default:
		return models.VoteHold
	}
}
