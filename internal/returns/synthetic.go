package returns

import "github.com/dmarks/debasement/internal/contracts"

// syntheticReturns builds a daily inflation-return path of length n,
// with the first element fixed to 0 like an observed percent-change
// series. With at least two observed index levels, draws follow the
// mean and standard deviation of the observed percent changes;
// otherwise the default annual rate spread over trading days with
// default daily volatility.
func (e *Engine) syntheticReturns(n int, inflation contracts.TimeSeries) []float64 {
	m := DefaultAnnualInflation / TradingDaysPerYear
	sd := defaultDailyVol
	if inflation.Len() >= 2 {
		changes := pctChange(inflation.Values)[1:]
		m = mean(changes)
		sd = stddev(changes)
	}

	out := make([]float64, n)
	for i := 1; i < n; i++ {
		out[i] = m + sd*e.rng.NormFloat64()
	}
	return out
}
