package contracts

import "time"

// SignalDirection indicates which way a signal points. Bearish means
// debasement pressure (bearish for nominal assets), bullish the
// opposite.
type SignalDirection string

const (
	DirectionBullish SignalDirection = "bullish"
	DirectionBearish SignalDirection = "bearish"
	DirectionNeutral SignalDirection = "neutral"
)

// SignalSeverity grades an individual signal. Severity decides the
// weight a signal carries in the composite score.
type SignalSeverity string

const (
	SeverityMedium SignalSeverity = "medium"
	SeverityHigh   SignalSeverity = "high"
)

// Weight returns the composite weight for the severity.
func (s SignalSeverity) Weight() float64 {
	if s == SeverityHigh {
		return 2.0
	}
	return 1.0
}

// AlertLevel grades the composite signal.
type AlertLevel string

const (
	LevelNormal AlertLevel = "normal"
	LevelMedium AlertLevel = "medium"
	LevelHigh   AlertLevel = "high"
)

// Signal is one fired detection rule.
type Signal struct {
	Type        string          `json:"type"`
	Direction   SignalDirection `json:"direction"`
	Severity    SignalSeverity  `json:"severity"`
	Strength    float64         `json:"strength"`
	Value       float64         `json:"value"`
	Threshold   float64         `json:"threshold"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
}

// Weighted returns the signal's contribution to the composite net
// score: severity weight times strength, negative for bearish signals.
func (s Signal) Weighted() float64 {
	w := s.Severity.Weight() * s.Strength
	switch s.Direction {
	case DirectionBearish:
		return -w
	case DirectionNeutral:
		return 0
	}
	return w
}

// CompositeSignal aggregates all active signals into one assessment.
// Score is the net bullish-minus-bearish weighted total; Strength is
// the total weighted strength regardless of direction and drives the
// alert level.
type CompositeSignal struct {
	Score       float64         `json:"score"`
	Strength    float64         `json:"strength"`
	Direction   SignalDirection `json:"direction"`
	Level       AlertLevel      `json:"level"`
	Signals     []Signal        `json:"signals"`
	GeneratedAt time.Time       `json:"generated_at"`
}
