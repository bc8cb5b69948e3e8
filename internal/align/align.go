// Package align resamples series of mixed frequency onto a shared
// daily calendar so monthly, quarterly, and daily data can be compared
// row by row.
package align

import (
	"math"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
)

// ToDaily expands a series to one observation per calendar day between
// its first and last dates, forward-filling gaps with the most recent
// value. Applying it to an already-daily series returns an equal series.
func ToDaily(ts contracts.TimeSeries) contracts.TimeSeries {
	if ts.Len() < 2 {
		return ts
	}

	out := contracts.TimeSeries{}
	src := 0
	last := ts.Values[0]

	for day := ts.Dates[0]; !day.After(ts.Dates[ts.Len()-1]); day = day.AddDate(0, 0, 1) {
		if src < ts.Len() && ts.Dates[src].Equal(day) {
			last = ts.Values[src]
			src++
		}
		out.Dates = append(out.Dates, day)
		out.Values = append(out.Values, last)
	}
	return out
}

// Align places every input series on one daily calendar spanning the
// earliest to the latest date across all inputs. Within each column,
// gaps are forward-filled; positions before the column's first
// observation are NaN. Aligning an already-aligned frame's columns
// again produces the same frame.
func Align(series map[string]contracts.TimeSeries) contracts.AlignedFrame {
	var start, end time.Time
	for _, ts := range series {
		if ts.IsEmpty() {
			continue
		}
		if start.IsZero() || ts.Dates[0].Before(start) {
			start = ts.Dates[0]
		}
		if end.IsZero() || ts.Dates[ts.Len()-1].After(end) {
			end = ts.Dates[ts.Len()-1]
		}
	}

	frame := contracts.AlignedFrame{}
	if start.IsZero() {
		return frame
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		frame.Dates = append(frame.Dates, day)
	}

	for name, ts := range series {
		col := make([]float64, len(frame.Dates))
		src := 0
		last := math.NaN()
		for i, day := range frame.Dates {
			for src < ts.Len() && !ts.Dates[src].After(day) {
				last = ts.Values[src]
				src++
			}
			col[i] = last
		}
		frame.SetColumn(name, col)
	}
	return frame
}
