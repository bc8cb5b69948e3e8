// Package signals evaluates rule-based monetary debasement signals
// over an aligned research frame.
package signals

import (
	"fmt"
	"math"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/logger"
)

// Thresholds holds the tunable detection parameters. Spread and return
// values are fractions (0.02 = 2%).
type Thresholds struct {
	// Inflation spread: actual minus theoretical cumulative change.
	SpreadHigh        float64
	SpreadLow         float64
	SpreadTrendAccel  float64
	SpreadStrengthCap float64

	// Hedge asset momentum: short-window return minus long-window return.
	MomentumShortWindow int
	MomentumLongWindow  int
	MomentumMin         float64
	MomentumStrengthCap float64

	// Money supply growth acceleration.
	M2GrowthPeriods int
	M2Accel         float64
	M2AccelHigh     float64
	M2StrengthCap   float64

	// Composite aggregation.
	CompositeNet float64
	LevelMedium  float64
	LevelHigh    float64
}

// DefaultThresholds returns the standard detection parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SpreadHigh:        0.02,
		SpreadLow:         -0.01,
		SpreadTrendAccel:  0.01,
		SpreadStrengthCap: 3.0,

		MomentumShortWindow: 5,
		MomentumLongWindow:  20,
		MomentumMin:         0.10,
		MomentumStrengthCap: 2.5,

		M2GrowthPeriods: 5,
		M2Accel:         0.05,
		M2AccelHigh:     0.10,
		M2StrengthCap:   3.0,

		CompositeNet: 0.5,
		LevelMedium:  1.5,
		LevelHigh:    3.0,
	}
}

// Detector runs the detection rules.
type Detector struct {
	logger     *logger.Logger
	thresholds Thresholds
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(log *logger.Logger, th Thresholds) *Detector {
	return &Detector{
		logger:     log.WithField("component", "signals"),
		thresholds: th,
	}
}

// Detect runs every rule against the frame and aggregates the results
// into a composite signal. The net score is the bullish weighted total
// minus the bearish weighted total; the alert level follows the total
// weighted strength of all active signals. A frame that fires no rules
// yields a normal, neutral composite with an empty signal list.
func (d *Detector) Detect(frame *contracts.AlignedFrame) contracts.CompositeSignal {
	var active []contracts.Signal

	if s, ok := d.DetectSpread(frame); ok {
		active = append(active, s)
	}
	if s, ok := d.DetectMomentum(frame); ok {
		active = append(active, s)
	}
	if s, ok := d.DetectM2Acceleration(frame); ok {
		active = append(active, s)
	}

	var net, total float64
	for _, s := range active {
		w := s.Weighted()
		net += w
		total += math.Abs(w)
	}

	direction := contracts.DirectionNeutral
	if net > d.thresholds.CompositeNet {
		direction = contracts.DirectionBullish
	} else if net < -d.thresholds.CompositeNet {
		direction = contracts.DirectionBearish
	}

	level := contracts.LevelNormal
	switch {
	case total > d.thresholds.LevelHigh:
		level = contracts.LevelHigh
	case total > d.thresholds.LevelMedium:
		level = contracts.LevelMedium
	}

	composite := contracts.CompositeSignal{
		Score:       net,
		Strength:    total,
		Direction:   direction,
		Level:       level,
		Signals:     active,
		GeneratedAt: time.Now().UTC(),
	}

	d.logger.WithFields(map[string]interface{}{
		"score":    net,
		"strength": total,
		"level":    level,
		"signals":  len(active),
	}).Info("Signal detection completed")

	return composite
}

// DetectSpread fires when the latest inflation spread exceeds the high
// or low threshold. A spread above the high threshold is bearish for
// nominal assets; below the low threshold bullish. Both fire at high
// severity. When enough history exists, an accelerating spread trend is
// noted in the description.
func (d *Detector) DetectSpread(frame *contracts.AlignedFrame) (contracts.Signal, bool) {
	col, ok := frame.Column(contracts.SeriesInflationSpread)
	th := d.thresholds
	if !ok || col.Len() < 2 {
		return contracts.Signal{}, false
	}

	current := col.Last()

	var signal contracts.Signal
	switch {
	case current.Value > th.SpreadHigh:
		signal = contracts.Signal{
			Type:        "inflation_divergence",
			Direction:   contracts.DirectionBearish,
			Severity:    contracts.SeverityHigh,
			Strength:    capAt(current.Value/th.SpreadHigh, th.SpreadStrengthCap),
			Value:       current.Value,
			Threshold:   th.SpreadHigh,
			Date:        current.Date,
			Description: fmt.Sprintf("Actual inflation running %.1f%% above theoretical", current.Value*100),
		}
	case current.Value < th.SpreadLow:
		signal = contracts.Signal{
			Type:        "inflation_divergence",
			Direction:   contracts.DirectionBullish,
			Severity:    contracts.SeverityHigh,
			Strength:    capAt(math.Abs(current.Value/th.SpreadLow), th.SpreadStrengthCap),
			Value:       current.Value,
			Threshold:   th.SpreadLow,
			Date:        current.Date,
			Description: fmt.Sprintf("Actual inflation running %.1f%% below theoretical", -current.Value*100),
		}
	default:
		return contracts.Signal{}, false
	}

	if n := col.Len(); n >= 10 {
		trend := mean(col.Values[n-5:]) - mean(col.Values[n-10:n-5])
		if math.Abs(trend) > th.SpreadTrendAccel {
			signal.Description += fmt.Sprintf("; trend accelerating %+.1f%%", trend*100)
		}
	}
	return signal, true
}

// DetectMomentum fires when the hedge asset's short-window return pulls
// away from its long-window return by more than the momentum threshold
// in either direction. Accelerating hedge demand reads bullish for the
// hedge, fading demand bearish.
func (d *Detector) DetectMomentum(frame *contracts.AlignedFrame) (contracts.Signal, bool) {
	col, ok := frame.Column(contracts.SeriesBitcoin)
	th := d.thresholds
	if !ok || col.Len() < 10 {
		return contracts.Signal{}, false
	}

	n := col.Len()
	short := min(th.MomentumShortWindow, n/4)
	long := min(th.MomentumLongWindow, n/2)
	if short < 1 || long < 1 {
		return contracts.Signal{}, false
	}

	last := col.Values[n-1]
	shortBase := col.Values[n-short]
	longBase := col.Values[n-long]
	if shortBase == 0 || longBase == 0 {
		return contracts.Signal{}, false
	}
	momentum := (last/shortBase - 1) - (last/longBase - 1)

	if math.Abs(momentum) <= th.MomentumMin {
		return contracts.Signal{}, false
	}

	direction := contracts.DirectionBullish
	if momentum < 0 {
		direction = contracts.DirectionBearish
	}

	return contracts.Signal{
		Type:        "hedge_momentum",
		Direction:   direction,
		Severity:    contracts.SeverityMedium,
		Strength:    capAt(math.Abs(momentum)/th.MomentumMin, th.MomentumStrengthCap),
		Value:       momentum,
		Threshold:   th.MomentumMin,
		Date:        col.Dates[n-1],
		Description: fmt.Sprintf("BTC %d-day return %.1f%% away from %d-day trend", short, momentum*100, long),
	}, true
}

// DetectM2Acceleration fires when the mean of the most recent money
// supply growth rates pulls away from the mean of the preceding ones by
// more than the threshold. Accelerating money growth is bearish for
// nominal assets; decelerating growth bullish. Acceleration beyond the
// high threshold raises severity.
func (d *Detector) DetectM2Acceleration(frame *contracts.AlignedFrame) (contracts.Signal, bool) {
	col, ok := frame.Column(contracts.SeriesMoneySupply)
	th := d.thresholds
	if !ok || col.Len() < 20 {
		return contracts.Signal{}, false
	}

	growth := periodGrowth(col.Values, th.M2GrowthPeriods)
	g := len(growth)
	if g < 15 {
		return contracts.Signal{}, false
	}

	recent := mean(growth[g-5:])
	baseline := mean(growth[g-15 : g-5])
	accel := recent - baseline

	if math.Abs(accel) <= th.M2Accel {
		return contracts.Signal{}, false
	}

	direction := contracts.DirectionBearish
	if accel < 0 {
		direction = contracts.DirectionBullish
	}

	severity := contracts.SeverityMedium
	if math.Abs(accel) > th.M2AccelHigh {
		severity = contracts.SeverityHigh
	}

	verb := "accelerated"
	if accel < 0 {
		verb = "decelerated"
	}
	n := col.Len()
	return contracts.Signal{
		Type:        "m2_acceleration",
		Direction:   direction,
		Severity:    severity,
		Strength:    capAt(math.Abs(accel)/th.M2Accel, th.M2StrengthCap),
		Value:       accel,
		Threshold:   th.M2Accel,
		Date:        col.Dates[n-1],
		Description: fmt.Sprintf("M2 growth %s %.1f%% vs recent baseline", verb, math.Abs(accel)*100),
	}, true
}

// Recommendations maps a composite signal to plain-language guidance.
func Recommendations(c contracts.CompositeSignal) []string {
	var recs []string

	switch {
	case c.Level == contracts.LevelHigh && c.Strength > 2.0:
		if c.Direction == contracts.DirectionBearish {
			recs = append(recs,
				"Strong debasement pressure; review hard asset allocation",
				"Consider reducing long-duration nominal exposure")
		} else {
			recs = append(recs, "Strong signals with hedge demand leading; momentum favors hard assets")
		}
	case c.Level == contracts.LevelMedium:
		recs = append(recs, "Mixed signals; monitor before repositioning")
	default:
		recs = append(recs, "No actionable debasement signals; maintain current allocation")
	}

	for _, s := range c.Signals {
		if s.Severity == contracts.SeverityHigh {
			recs = append(recs, fmt.Sprintf("High severity: %s", s.Description))
		}
	}
	return recs
}

// periodGrowth returns the period-over-period growth rates at the given
// lag, skipping zero denominators.
func periodGrowth(values []float64, periods int) []float64 {
	var out []float64
	for i := periods; i < len(values); i++ {
		if values[i-periods] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-periods]-1)
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func capAt(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}
