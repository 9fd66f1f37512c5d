// Package dataset prepares stored price history for model training:
// finding calendar gaps, synthesizing the missing days, and exporting
// training files.
package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/stockfolio/stockfolio/models"
)

type FillMethod string

const (
	FillForward     FillMethod = "forward"
	FillBackward    FillMethod = "backward"
	FillInterpolate FillMethod = "interpolate"
)

// BusinessDays returns every Monday-Friday in [start, end].
func BusinessDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			days = append(days, d)
		}
	}
	return days
}

// FindGaps returns the business days in [start, end] with no bar.
func FindGaps(bars []models.PriceBar, start, end time.Time) []time.Time {
	have := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		have[models.DateKey(b.Date)] = struct{}{}
	}

	var gaps []time.Time
	for _, d := range BusinessDays(start, end) {
		if _, ok := have[models.DateKey(d)]; !ok {
			gaps = append(gaps, d)
		}
	}
	return gaps
}

// Fill produces a bar for every business day in [start, end]. Existing
// bars are kept as-is; missing days are synthesized with the chosen
// method and carry zero volume so they are distinguishable from traded
// days. Leading and trailing gaps always use the nearest real bar.
func Fill(bars []models.PriceBar, start, end time.Time, method FillMethod) ([]models.PriceBar, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("cannot fill an empty series")
	}
	switch method {
	case FillForward, FillBackward, FillInterpolate:
	default:
		return nil, fmt.Errorf("unknown fill method %q", method)
	}

	sorted := make([]models.PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	byDate := make(map[string]models.PriceBar, len(sorted))
	for _, b := range sorted {
		byDate[models.DateKey(b.Date)] = b
	}

	days := BusinessDays(start, end)
	out := make([]models.PriceBar, 0, len(days))
	for _, d := range days {
		if b, ok := byDate[models.DateKey(d)]; ok {
			out = append(out, b)
			continue
		}

		prev, hasPrev := lastBefore(sorted, d)
		next, hasNext := firstAfter(sorted, d)

		var price float64
		switch {
		case !hasPrev && !hasNext:
			return nil, fmt.Errorf("no data to fill %s", models.DateKey(d))
		case !hasPrev:
			price = next.Price()
		case !hasNext:
			price = prev.Price()
		case method == FillForward:
			price = prev.Price()
		case method == FillBackward:
			price = next.Price()
		default: // interpolate linearly by calendar position
			span := next.Date.Sub(prev.Date).Hours()
			frac := d.Sub(prev.Date).Hours() / span
			price = prev.Price() + (next.Price()-prev.Price())*frac
		}

		out = append(out, models.PriceBar{
			Ticker:   sorted[0].Ticker,
			Date:     d,
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			AdjClose: price,
			Volume:   0,
		})
	}

	return out, nil
}

func lastBefore(sorted []models.PriceBar, d time.Time) (models.PriceBar, bool) {
	idx := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Date.Before(d) })
	if idx == 0 {
		return models.PriceBar{}, false
	}
	return sorted[idx-1], true
}

func firstAfter(sorted []models.PriceBar, d time.Time) (models.PriceBar, bool) {
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Date.After(d) })
	if idx == len(sorted) {
		return models.PriceBar{}, false
	}
	return sorted[idx], true
}
