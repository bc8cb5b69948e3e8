package contracts

import (
	"sort"
	"time"
)

// Canonical series names used in aligned frames.
const (
	SeriesCPI             = "CPI"
	SeriesMoneySupply     = "M2"
	SeriesVelocity        = "Velocity"
	SeriesRealOutput      = "RealOutput"
	SeriesPriceLevel      = "P"
	SeriesBitcoin         = "BTC"
	SeriesInflationSpread = "InflationSpread"
)

// Point is a single dated observation.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeries is an ordered sequence of dated observations.
// Dates and Values are parallel slices; Dates is strictly increasing
// and normalized to UTC midnight. Use NewTimeSeries to build one from
// unordered input.
type TimeSeries struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Day normalizes a timestamp to UTC midnight. All series dates pass
// through this so observations from providers in different timezones
// land on the same calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewTimeSeries builds a TimeSeries from points. Input may be unordered
// and contain duplicate dates; points are sorted and for duplicate dates
// the first occurrence in the input wins.
func NewTimeSeries(points []Point) TimeSeries {
	if len(points) == 0 {
		return TimeSeries{}
	}

	seen := make(map[time.Time]float64, len(points))
	order := make([]time.Time, 0, len(points))
	for _, p := range points {
		d := Day(p.Date)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = p.Value
		order = append(order, d)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	ts := TimeSeries{
		Dates:  order,
		Values: make([]float64, len(order)),
	}
	for i, d := range order {
		ts.Values[i] = seen[d]
	}
	return ts
}

// Len returns the number of observations.
func (ts TimeSeries) Len() int {
	return len(ts.Dates)
}

// IsEmpty reports whether the series has no observations.
func (ts TimeSeries) IsEmpty() bool {
	return len(ts.Dates) == 0
}

// First returns the earliest observation. Call only on non-empty series.
func (ts TimeSeries) First() Point {
	return Point{Date: ts.Dates[0], Value: ts.Values[0]}
}

// Last returns the latest observation. Call only on non-empty series.
func (ts TimeSeries) Last() Point {
	n := len(ts.Dates) - 1
	return Point{Date: ts.Dates[n], Value: ts.Values[n]}
}

// ValueAt returns the value observed on the given day, if any.
func (ts TimeSeries) ValueAt(t time.Time) (float64, bool) {
	d := Day(t)
	i := sort.Search(len(ts.Dates), func(i int) bool {
		return !ts.Dates[i].Before(d)
	})
	if i < len(ts.Dates) && ts.Dates[i].Equal(d) {
		return ts.Values[i], true
	}
	return 0, false
}

// Window returns the sub-series with from <= date <= to.
func (ts TimeSeries) Window(from, to time.Time) TimeSeries {
	fd, td := Day(from), Day(to)
	lo := sort.Search(len(ts.Dates), func(i int) bool {
		return !ts.Dates[i].Before(fd)
	})
	hi := sort.Search(len(ts.Dates), func(i int) bool {
		return ts.Dates[i].After(td)
	})
	if lo >= hi {
		return TimeSeries{}
	}
	return TimeSeries{
		Dates:  append([]time.Time(nil), ts.Dates[lo:hi]...),
		Values: append([]float64(nil), ts.Values[lo:hi]...),
	}
}

// Scale returns a copy with every value multiplied by factor.
// Used for unit normalization (billions, percentages, thousands).
func (ts TimeSeries) Scale(factor float64) TimeSeries {
	out := TimeSeries{
		Dates:  append([]time.Time(nil), ts.Dates...),
		Values: make([]float64, len(ts.Values)),
	}
	for i, v := range ts.Values {
		out.Values[i] = v * factor
	}
	return out
}
