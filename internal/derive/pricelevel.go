// Package derive computes theoretical quantities from observed series.
package derive

import (
	"fmt"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
)

// MinPriceLevelOverlap is the minimum number of dates the money,
// velocity, and output series must share for the derived price level
// to be meaningful.
const MinPriceLevelOverlap = 10

// ComputePriceLevel derives the quantity-theory price level P = M*V/Q
// on the dates shared by all three inputs, then rebases the result so
// the first value is 100.
func ComputePriceLevel(money, velocity, output contracts.TimeSeries) (contracts.TimeSeries, error) {
	var common []time.Time
	for _, d := range money.Dates {
		if _, ok := velocity.ValueAt(d); !ok {
			continue
		}
		if _, ok := output.ValueAt(d); !ok {
			continue
		}
		common = append(common, d)
	}

	if len(common) < MinPriceLevelOverlap {
		return contracts.TimeSeries{}, fmt.Errorf(
			"price level needs %d common dates, have %d: %w",
			MinPriceLevelOverlap, len(common), contracts.ErrInsufficientOverlap)
	}

	out := contracts.TimeSeries{
		Dates:  common,
		Values: make([]float64, len(common)),
	}
	for i, d := range common {
		m, _ := money.ValueAt(d)
		v, _ := velocity.ValueAt(d)
		q, _ := output.ValueAt(d)
		if q == 0 {
			return contracts.TimeSeries{}, fmt.Errorf("real output is zero on %s", d.Format("2006-01-02"))
		}
		out.Values[i] = m * v / q
	}

	// Rebase to 100 at the first common date.
	base := out.Values[0]
	if base == 0 {
		return contracts.TimeSeries{}, fmt.Errorf("derived price level is zero at base date")
	}
	for i := range out.Values {
		out.Values[i] = out.Values[i] / base * 100
	}
	return out, nil
}
