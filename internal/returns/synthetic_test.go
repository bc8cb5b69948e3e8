package returns

import (
	"math"
	"testing"

	"github.com/dmarks/debasement/internal/contracts"
)

func TestSyntheticStatsFromObservedChanges(t *testing.T) {
	// No shared dates, but the inflation series has two observed
	// changes of exactly +10%, so the synthetic path draws with mean
	// 0.10 and zero deviation.
	prices := daily(testStart, constant(30, 100)...)
	inflation := daily(testStart.AddDate(0, 0, 100), 100, 110, 121)

	r, err := testEngine().Analyze("OBS", prices, inflation, MeasureCPI)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !r.SyntheticInflation {
		t.Fatal("expected SyntheticInflation tag without overlap")
	}

	if r.InflationReturns[0] != 0 {
		t.Errorf("day-one inflation return = %v, want 0", r.InflationReturns[0])
	}
	for i := 1; i < len(r.InflationReturns); i++ {
		if math.Abs(r.InflationReturns[i]-0.10) > 1e-12 {
			t.Fatalf("InflationReturns[%d] = %v, want 0.10 from observed changes", i, r.InflationReturns[i])
		}
	}
}

func TestSyntheticSingleObservationUsesDefaults(t *testing.T) {
	// One index level allows no percent change, so the path must fall
	// back to the default rate rather than treating the level itself
	// as a daily rate.
	prices := daily(testStart, constant(30, 100)...)
	inflation := daily(testStart.AddDate(0, 0, 100), 300)

	r, err := testEngine().Analyze("ONE", prices, inflation, MeasureCPI)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !r.SyntheticInflation {
		t.Fatal("expected SyntheticInflation tag")
	}

	// 29 days of roughly 3%/252 drag on flat prices.
	if r.TotalRealPct < -10 || r.TotalRealPct > 10 {
		t.Errorf("TotalRealPct = %v, want a few tenths of a percent of drag", r.TotalRealPct)
	}
}

func TestSyntheticDefaultPathHasVolatility(t *testing.T) {
	prices := daily(testStart, constant(60, 100)...)

	r, err := testEngine().Analyze("VOL", prices, contracts.TimeSeries{}, MeasureCPI)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !r.SyntheticInflation {
		t.Fatal("expected SyntheticInflation tag")
	}

	if sd := stddev(r.InflationReturns[1:]); sd == 0 {
		t.Error("default synthetic path should vary around the mean rate")
	}
}
