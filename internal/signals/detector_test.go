package signals

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/config"
	"github.com/dmarks/debasement/pkg/logger"
)

func testDetector() *Detector {
	cfg := &config.Config{Env: "development", LogLevel: "error"}
	return NewDetector(logger.New(cfg), DefaultThresholds())
}

func frameWith(name string, values []float64) *contracts.AlignedFrame {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &contracts.AlignedFrame{}
	for i := range values {
		f.Dates = append(f.Dates, start.AddDate(0, 0, i))
	}
	f.SetColumn(name, values)
	return f
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestDetectQuietFrame(t *testing.T) {
	// Flat series everywhere: no rule should fire.
	f := frameWith(contracts.SeriesInflationSpread, repeat(0.001, 25))
	f.SetColumn(contracts.SeriesBitcoin, repeat(40000, 25))
	f.SetColumn(contracts.SeriesMoneySupply, repeat(100, 25))

	c := testDetector().Detect(f)

	if c.Level != contracts.LevelNormal {
		t.Errorf("Level = %s, want normal", c.Level)
	}
	if c.Direction != contracts.DirectionNeutral {
		t.Errorf("Direction = %s, want neutral", c.Direction)
	}
	if len(c.Signals) != 0 {
		t.Errorf("Signals = %d, want none", len(c.Signals))
	}
	if c.Score != 0 || c.Strength != 0 {
		t.Errorf("Score = %v, Strength = %v, want 0", c.Score, c.Strength)
	}
}

func TestDetectSpreadBearish(t *testing.T) {
	f := frameWith(contracts.SeriesInflationSpread, []float64{0.01, 0.02, 0.03})

	s, ok := testDetector().DetectSpread(f)
	if !ok {
		t.Fatal("expected spread signal")
	}
	if s.Direction != contracts.DirectionBearish {
		t.Errorf("Direction = %s, want bearish", s.Direction)
	}
	if s.Severity != contracts.SeverityHigh {
		t.Errorf("Severity = %s, want high", s.Severity)
	}
	if math.Abs(s.Strength-1.5) > 1e-9 {
		t.Errorf("Strength = %v, want 1.5 (0.03/0.02)", s.Strength)
	}
}

func TestDetectSpreadBullish(t *testing.T) {
	f := frameWith(contracts.SeriesInflationSpread, []float64{-0.005, -0.018})

	s, ok := testDetector().DetectSpread(f)
	if !ok {
		t.Fatal("expected spread signal")
	}
	if s.Direction != contracts.DirectionBullish {
		t.Errorf("Direction = %s, want bullish", s.Direction)
	}
	if s.Severity != contracts.SeverityHigh {
		t.Errorf("Severity = %s, want high", s.Severity)
	}
	if math.Abs(s.Strength-1.8) > 1e-9 {
		t.Errorf("Strength = %v, want 1.8", s.Strength)
	}
}

func TestDetectSpreadStrengthCapped(t *testing.T) {
	f := frameWith(contracts.SeriesInflationSpread, []float64{0.3, 0.5})

	s, ok := testDetector().DetectSpread(f)
	if !ok {
		t.Fatal("expected spread signal")
	}
	if s.Strength != 3.0 {
		t.Errorf("Strength = %v, want capped at 3.0", s.Strength)
	}
}

func TestDetectSpreadNeedsTwoPoints(t *testing.T) {
	f := frameWith(contracts.SeriesInflationSpread, []float64{0.5})

	if _, ok := testDetector().DetectSpread(f); ok {
		t.Error("single-point spread should not fire")
	}
}

func TestDetectSpreadTrendNote(t *testing.T) {
	// Last five average 0.05, prior five 0.02: trend +3%.
	vals := append(repeat(0.02, 5), repeat(0.05, 5)...)
	f := frameWith(contracts.SeriesInflationSpread, vals)

	s, ok := testDetector().DetectSpread(f)
	if !ok {
		t.Fatal("expected spread signal")
	}
	if !strings.Contains(s.Description, "trend accelerating") {
		t.Errorf("Description = %q, want trend note", s.Description)
	}
}

func TestDetectMomentumBullish(t *testing.T) {
	// Drawdown into the short window followed by a sharp recovery:
	// 5-day return 0.40 against a 10-day return of 0.12.
	vals := repeat(50000, 11)
	vals = append(vals, 46000, 43000, 41000, 40000, 40000)
	vals = append(vals, 44000, 48000, 52000, 56000)
	f := frameWith(contracts.SeriesBitcoin, vals)

	s, ok := testDetector().DetectMomentum(f)
	if !ok {
		t.Fatal("expected momentum signal")
	}
	if s.Direction != contracts.DirectionBullish {
		t.Errorf("Direction = %s, want bullish", s.Direction)
	}
	if s.Severity != contracts.SeverityMedium {
		t.Errorf("Severity = %s, want medium", s.Severity)
	}
	if s.Value <= 0.10 {
		t.Errorf("Value = %v, want above threshold", s.Value)
	}
	if s.Strength != 2.5 {
		t.Errorf("Strength = %v, want capped at 2.5", s.Strength)
	}
}

func TestDetectMomentumBearish(t *testing.T) {
	// Rally into the short window followed by a selloff: 5-day return
	// -0.16 against a 10-day return of +0.05.
	vals := repeat(40000, 11)
	vals = append(vals, 43000, 46000, 48000, 50000, 50000)
	vals = append(vals, 48000, 46000, 44000, 42000)
	f := frameWith(contracts.SeriesBitcoin, vals)

	s, ok := testDetector().DetectMomentum(f)
	if !ok {
		t.Fatal("expected momentum signal")
	}
	if s.Direction != contracts.DirectionBearish {
		t.Errorf("Direction = %s, want bearish", s.Direction)
	}
	if s.Value >= 0 {
		t.Errorf("Value = %v, want negative", s.Value)
	}
}

func TestDetectMomentumBelowThreshold(t *testing.T) {
	// Steady 0.1%/day drift: short and long returns nearly equal.
	vals := make([]float64, 20)
	vals[0] = 40000
	for i := 1; i < len(vals); i++ {
		vals[i] = vals[i-1] * 1.001
	}
	f := frameWith(contracts.SeriesBitcoin, vals)

	if _, ok := testDetector().DetectMomentum(f); ok {
		t.Error("steady drift should not fire")
	}
}

func TestDetectMomentumNeedsHistory(t *testing.T) {
	f := frameWith(contracts.SeriesBitcoin, []float64{40000, 80000})

	if _, ok := testDetector().DetectMomentum(f); ok {
		t.Error("two points should not fire")
	}
}

func TestDetectM2AccelerationBearish(t *testing.T) {
	// Flat base then 3%/day growth: recent 5-period growth rates far
	// above the preceding ones.
	vals := repeat(100, 20)
	last := 100.0
	for i := 0; i < 10; i++ {
		last *= 1.03
		vals = append(vals, last)
	}
	f := frameWith(contracts.SeriesMoneySupply, vals)

	s, ok := testDetector().DetectM2Acceleration(f)
	if !ok {
		t.Fatal("expected m2 acceleration signal")
	}
	if s.Direction != contracts.DirectionBearish {
		t.Errorf("Direction = %s, want bearish", s.Direction)
	}
	if s.Value <= 0.05 {
		t.Errorf("Value = %v, want above threshold", s.Value)
	}
	if s.Severity != contracts.SeverityHigh {
		t.Errorf("Severity = %s, want high for %.3f acceleration", s.Severity, s.Value)
	}
}

func TestDetectM2DecelerationBullish(t *testing.T) {
	// 2%/day growth that stalls: recent growth rates collapse below
	// the baseline.
	vals := []float64{100}
	last := 100.0
	for i := 0; i < 19; i++ {
		last *= 1.02
		vals = append(vals, last)
	}
	for i := 0; i < 10; i++ {
		vals = append(vals, last)
	}
	f := frameWith(contracts.SeriesMoneySupply, vals)

	s, ok := testDetector().DetectM2Acceleration(f)
	if !ok {
		t.Fatal("expected m2 deceleration signal")
	}
	if s.Direction != contracts.DirectionBullish {
		t.Errorf("Direction = %s, want bullish", s.Direction)
	}
	if s.Value >= 0 {
		t.Errorf("Value = %v, want negative", s.Value)
	}
}

func TestDetectM2NeedsHistory(t *testing.T) {
	f := frameWith(contracts.SeriesMoneySupply, repeat(100, 19))

	if _, ok := testDetector().DetectM2Acceleration(f); ok {
		t.Error("19 points should not fire")
	}
}

func TestDetectCompositeAggregation(t *testing.T) {
	// Bearish spread (high severity) plus bearish M2 acceleration:
	// both weighted totals land on the bearish side.
	n := 30
	f := frameWith(contracts.SeriesInflationSpread, repeat(0.03, n))

	m2 := repeat(100, 20)
	last := 100.0
	for i := 0; i < 10; i++ {
		last *= 1.02
		m2 = append(m2, last)
	}
	f.SetColumn(contracts.SeriesMoneySupply, m2)
	f.SetColumn(contracts.SeriesBitcoin, repeat(40000, n))

	c := testDetector().Detect(f)

	if len(c.Signals) != 2 {
		t.Fatalf("Signals = %d, want 2", len(c.Signals))
	}
	if c.Score >= 0 {
		t.Errorf("Score = %v, want negative (net bearish)", c.Score)
	}
	if c.Direction != contracts.DirectionBearish {
		t.Errorf("Direction = %s, want bearish", c.Direction)
	}
	// spread: 2.0 weight * 1.5 strength = 3.0; m2 adds more.
	if c.Strength <= 3.0 {
		t.Errorf("Strength = %v, want above 3.0", c.Strength)
	}
	if c.Level != contracts.LevelHigh {
		t.Errorf("Level = %s, want high", c.Level)
	}
}

func TestDetectCompositeOffsettingSignals(t *testing.T) {
	// Bearish spread against a strong bullish BTC recovery: the net
	// score shrinks but total strength still sets the level.
	n := 30
	f := frameWith(contracts.SeriesInflationSpread, repeat(0.06, n))

	// 5-day return 0.375 against a 15-day return of 0.10.
	btc := repeat(40000, n)
	btc[n-5] = 32000
	btc[n-1] = 44000
	f.SetColumn(contracts.SeriesBitcoin, btc)

	c := testDetector().Detect(f)

	if len(c.Signals) != 2 {
		t.Fatalf("Signals = %d, want 2", len(c.Signals))
	}
	if c.Strength <= c.Score && c.Strength <= -c.Score {
		t.Errorf("Strength = %v should exceed |Score| = %v with offsetting signals", c.Strength, c.Score)
	}
	if c.Level == contracts.LevelNormal {
		t.Errorf("Level = %s, want elevated despite offsetting directions", c.Level)
	}
}

func TestRecommendations(t *testing.T) {
	quiet := Recommendations(contracts.CompositeSignal{Direction: contracts.DirectionNeutral})
	if len(quiet) != 1 {
		t.Errorf("neutral recommendations = %d, want 1", len(quiet))
	}

	hot := Recommendations(contracts.CompositeSignal{
		Direction: contracts.DirectionBearish,
		Level:     contracts.LevelHigh,
		Strength:  4.5,
		Signals: []contracts.Signal{
			{Severity: contracts.SeverityHigh, Description: "M2 growth accelerated 12.0% vs recent baseline"},
		},
	})
	if len(hot) != 3 {
		t.Errorf("high-level recommendations = %d, want 3", len(hot))
	}

	mixed := Recommendations(contracts.CompositeSignal{
		Direction: contracts.DirectionNeutral,
		Level:     contracts.LevelMedium,
		Strength:  1.8,
	})
	if len(mixed) != 1 || !strings.Contains(mixed[0], "monitor") {
		t.Errorf("medium recommendations = %v, want monitor guidance", mixed)
	}
}
