package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// AlignedFrame holds several series resampled onto one shared daily
// calendar. Columns are parallel to Dates; positions before a column's
// first observation hold NaN (forward-fill cannot reach them).
type AlignedFrame struct {
	Dates   []time.Time
	Columns map[string][]float64
}

// Len returns the number of calendar days in the frame.
func (f *AlignedFrame) Len() int {
	return len(f.Dates)
}

// Has reports whether the frame contains the named column.
func (f *AlignedFrame) Has(name string) bool {
	_, ok := f.Columns[name]
	return ok
}

// Column extracts the named column as a TimeSeries, dropping leading
// NaN positions. Returns false when the column is absent.
func (f *AlignedFrame) Column(name string) (TimeSeries, bool) {
	vals, ok := f.Columns[name]
	if !ok {
		return TimeSeries{}, false
	}
	ts := TimeSeries{}
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		ts.Dates = append(ts.Dates, f.Dates[i])
		ts.Values = append(ts.Values, v)
	}
	return ts, ok
}

// SetColumn stores values for the named column. The slice must have
// the same length as Dates.
func (f *AlignedFrame) SetColumn(name string, vals []float64) {
	if f.Columns == nil {
		f.Columns = make(map[string][]float64)
	}
	f.Columns[name] = vals
}

// frameJSON is the wire form of AlignedFrame. NaN has no JSON
// representation, so undefined positions serialize as null.
type frameJSON struct {
	Dates   []time.Time           `json:"dates"`
	Columns map[string][]*float64 `json:"columns"`
}

// MarshalJSON encodes the frame with NaN positions as null.
func (f AlignedFrame) MarshalJSON() ([]byte, error) {
	out := frameJSON{
		Dates:   f.Dates,
		Columns: make(map[string][]*float64, len(f.Columns)),
	}
	for name, vals := range f.Columns {
		col := make([]*float64, len(vals))
		for i := range vals {
			if !math.IsNaN(vals[i]) {
				v := vals[i]
				col[i] = &v
			}
		}
		out.Columns[name] = col
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the frame, restoring null positions to NaN.
func (f *AlignedFrame) UnmarshalJSON(data []byte) error {
	var in frameJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	f.Dates = in.Dates
	f.Columns = make(map[string][]float64, len(in.Columns))
	for name, col := range in.Columns {
		vals := make([]float64, len(col))
		for i, p := range col {
			if p == nil {
				vals[i] = math.NaN()
			} else {
				vals[i] = *p
			}
		}
		f.Columns[name] = vals
	}
	return nil
}
