// Package returns computes inflation-adjusted return metrics for
// asset price series.
package returns

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/logger"
)

const (
	// TradingDaysPerYear is the annualization base.
	TradingDaysPerYear = 252

	// MinInflationOverlap is the smallest number of shared dates for
	// which observed inflation is trusted; below it a synthetic daily
	// path is substituted.
	MinInflationOverlap = 5

	// DefaultAnnualInflation seeds the synthetic path when inflation
	// observations are too few to estimate from.
	DefaultAnnualInflation = 0.03

	// minAnnualVol is the floor below which annualized volatility is
	// treated as float noise from a constant return series.
	minAnnualVol = 1e-12
)

// Inflation measure labels.
const (
	MeasureCPI     = "CPI"
	MeasurePTheory = "P=MV/Q"
)

// defaultDailyVol is the synthetic path's daily volatility when the
// observed series cannot supply one.
var defaultDailyVol = 0.01 / math.Sqrt(TradingDaysPerYear)

// Engine computes real (inflation-adjusted) returns.
type Engine struct {
	logger *logger.Logger
	rng    *rand.Rand
}

// NewEngine creates a returns engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{
		logger: log.WithField("component", "returns"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Analyze computes nominal and real return metrics for one asset
// against one inflation measure. prices holds the asset's price
// series; inflation holds the measure's index levels (the CPI index
// or a derived price level). Both series are reduced to the dates
// they share and daily percent changes are taken on that common grid,
// so the day count and annualization reflect only the analyzed dates.
// When the series share fewer than MinInflationOverlap dates, a
// synthetic inflation path over the asset's own dates is generated
// and the result is tagged, never failed.
func (e *Engine) Analyze(symbol string, prices, inflation contracts.TimeSeries, measure string) (contracts.ReturnsResult, error) {
	if prices.Len() < 2 {
		return contracts.ReturnsResult{}, fmt.Errorf("%s: need at least 2 price points, have %d: %w",
			symbol, prices.Len(), contracts.ErrDataUnavailable)
	}

	dates, assetLevels, inflationLevels := commonDates(prices, inflation)
	if len(dates) < MinInflationOverlap {
		e.logger.WithFields(map[string]interface{}{
			"symbol":  symbol,
			"measure": measure,
			"overlap": len(dates),
		}).Warn("Insufficient inflation overlap, using synthetic path")
		nominal := pctChange(prices.Values)
		synthetic := e.syntheticReturns(prices.Len(), inflation)
		return e.metrics(symbol, measure, prices.Dates, nominal, synthetic, true), nil
	}

	return e.metrics(symbol, measure, dates, pctChange(assetLevels), pctChange(inflationLevels), false), nil
}

// metrics compounds daily nominal and inflation returns into the full
// result. Both legs open with a zero return, so the first real return
// is zero as well.
func (e *Engine) metrics(symbol, measure string, dates []time.Time, nominal, inflationReturns []float64, synthetic bool) contracts.ReturnsResult {
	n := len(dates)

	real := make([]float64, n)
	for i := range real {
		real[i] = nominal[i] - inflationReturns[i]
	}

	cumNominal := compound(nominal)
	cumReal := compound(real)

	years := float64(n) / TradingDaysPerYear
	totalNominal := cumNominal[n-1] - 1
	totalReal := cumReal[n-1] - 1

	annReal := annualize(totalReal, years)
	realVol := annualVol(real)

	sharpe := 0.0
	if realVol > 0 {
		sharpe = annReal / realVol
	}

	return contracts.ReturnsResult{
		Symbol:             symbol,
		InflationMeasure:   measure,
		StartDate:          dates[0],
		EndDate:            dates[n-1],
		Days:               n,
		Years:              years,
		TotalNominalPct:    totalNominal * 100,
		TotalRealPct:       totalReal * 100,
		AnnualizedNominal:  annualize(totalNominal, years),
		AnnualizedReal:     annReal,
		NominalVolatility:  annualVol(nominal),
		RealVolatility:     realVol,
		RealSharpe:         sharpe,
		Dates:              dates,
		NominalReturns:     nominal,
		RealReturns:        real,
		InflationReturns:   inflationReturns,
		CumulativeNominal:  cumNominal,
		CumulativeReal:     cumReal,
		SyntheticInflation: synthetic,
	}
}

// CompareMeasures reports which inflation measure one asset held up
// better against, judged on annualized real return.
func CompareMeasures(cpi, ptheory contracts.ReturnsResult) contracts.InflationComparison {
	better := MeasurePTheory
	if cpi.AnnualizedReal > ptheory.AnnualizedReal {
		better = MeasureCPI
	}
	return contracts.InflationComparison{
		Symbol:            cpi.Symbol,
		CPIAnnualReal:     cpi.AnnualizedReal,
		PTheoryAnnualReal: ptheory.AnnualizedReal,
		Difference:        cpi.AnnualizedReal - ptheory.AnnualizedReal,
		BetterAgainst:     better,
	}
}

// commonDates intersects the two series on the asset's date order and
// returns the shared dates with both level series restricted to them.
func commonDates(prices, inflation contracts.TimeSeries) ([]time.Time, []float64, []float64) {
	var dates []time.Time
	var asset, infl []float64
	for i, d := range prices.Dates {
		if v, ok := inflation.ValueAt(d); ok {
			dates = append(dates, d)
			asset = append(asset, prices.Values[i])
			infl = append(infl, v)
		}
	}
	return dates, asset, infl
}

// pctChange returns period-over-period fractional changes with the
// first element fixed to 0.
func pctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			out[i] = values[i]/values[i-1] - 1
		}
	}
	return out
}

// compound turns daily returns into a cumulative growth path. The
// first return is 0, so the path opens at 1.0.
func compound(returns []float64) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		out[i] = acc
	}
	return out
}

func annualize(total, years float64) float64 {
	if years <= 0 || total <= -1 {
		return 0
	}
	return math.Pow(1+total, 1/years) - 1
}

// annualVol annualizes the sample standard deviation of daily
// returns, flooring float noise to exactly zero.
func annualVol(returns []float64) float64 {
	v := stddev(returns) * math.Sqrt(TradingDaysPerYear)
	if v < minAnnualVol {
		return 0
	}
	return v
}

// mean and stddev use the sample definition (n-1 denominator).
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

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
