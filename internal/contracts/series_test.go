package contracts

import (
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestNewTimeSeriesSortsInput(t *testing.T) {
	ts := NewTimeSeries([]Point{
		{Date: d(2024, 1, 3), Value: 12},
		{Date: d(2024, 1, 1), Value: 10},
	})

	if ts.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ts.Len())
	}
	if !ts.Dates[0].Equal(d(2024, 1, 1)) {
		t.Errorf("first date = %v, want 2024-01-01", ts.Dates[0])
	}
	if ts.Values[0] != 10 || ts.Values[1] != 12 {
		t.Errorf("values = %v, want [10 12]", ts.Values)
	}
}

func TestNewTimeSeriesDuplicateDateFirstWins(t *testing.T) {
	ts := NewTimeSeries([]Point{
		{Date: d(2024, 1, 1), Value: 10},
		{Date: d(2024, 1, 1), Value: 99},
	})

	if ts.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ts.Len())
	}
	if ts.Values[0] != 10 {
		t.Errorf("value = %v, want 10 (first occurrence)", ts.Values[0])
	}
}

func TestNewTimeSeriesNormalizesToDay(t *testing.T) {
	ts := NewTimeSeries([]Point{
		{Date: time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC), Value: 10},
	})

	if !ts.Dates[0].Equal(d(2024, 1, 1)) {
		t.Errorf("date = %v, want UTC midnight", ts.Dates[0])
	}
}

func TestValueAt(t *testing.T) {
	ts := NewTimeSeries([]Point{
		{Date: d(2024, 1, 1), Value: 10},
		{Date: d(2024, 1, 3), Value: 12},
	})

	v, ok := ts.ValueAt(d(2024, 1, 3))
	if !ok || v != 12 {
		t.Errorf("ValueAt(Jan 3) = %v, %v; want 12, true", v, ok)
	}

	if _, ok := ts.ValueAt(d(2024, 1, 2)); ok {
		t.Error("ValueAt(Jan 2) should be absent")
	}
}

func TestWindow(t *testing.T) {
	ts := NewTimeSeries([]Point{
		{Date: d(2024, 1, 1), Value: 1},
		{Date: d(2024, 1, 2), Value: 2},
		{Date: d(2024, 1, 3), Value: 3},
		{Date: d(2024, 1, 4), Value: 4},
	})

	w := ts.Window(d(2024, 1, 2), d(2024, 1, 3))
	if w.Len() != 2 {
		t.Fatalf("window Len = %d, want 2", w.Len())
	}
	if w.Values[0] != 2 || w.Values[1] != 3 {
		t.Errorf("window values = %v, want [2 3]", w.Values)
	}

	empty := ts.Window(d(2024, 2, 1), d(2024, 2, 5))
	if !empty.IsEmpty() {
		t.Errorf("window outside range should be empty, got %d points", empty.Len())
	}
}

func TestScale(t *testing.T) {
	ts := NewTimeSeries([]Point{
		{Date: d(2024, 1, 1), Value: 2.5},
	})

	scaled := ts.Scale(1e9)
	if scaled.Values[0] != 2.5e9 {
		t.Errorf("scaled value = %v, want 2.5e9", scaled.Values[0])
	}
	if ts.Values[0] != 2.5 {
		t.Error("Scale must not mutate the original series")
	}
}
