package contracts

import "time"

// ReturnsResult holds the inflation-adjusted return metrics for one
// asset against one inflation measure over an analysis window.
// Percentages are expressed as percent values (5.0 means 5%), rates
// as decimal fractions.
type ReturnsResult struct {
	Symbol string `json:"symbol"`

	// InflationMeasure names the deflator the returns were adjusted
	// by, observed CPI or the derived P = MV/Q price level.
	InflationMeasure string `json:"inflation_measure"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      int       `json:"days"`
	Years     float64   `json:"years"`

	TotalNominalPct float64 `json:"total_nominal_pct"`
	TotalRealPct    float64 `json:"total_real_pct"`

	AnnualizedNominal float64 `json:"annualized_nominal"`
	AnnualizedReal    float64 `json:"annualized_real"`

	NominalVolatility float64 `json:"nominal_volatility"`
	RealVolatility    float64 `json:"real_volatility"`

	RealSharpe float64 `json:"real_sharpe"`

	// Dates is the analyzed date grid: the dates the asset and the
	// inflation measure share, or the asset's own dates when the
	// inflation path is synthetic. The per-date slices below align
	// with it.
	Dates []time.Time `json:"dates,omitempty"`

	NominalReturns   []float64 `json:"nominal_returns,omitempty"`
	RealReturns      []float64 `json:"real_returns,omitempty"`
	InflationReturns []float64 `json:"inflation_returns,omitempty"`

	// CumulativeNominal and CumulativeReal are growth paths, base 1.0.
	CumulativeNominal []float64 `json:"cumulative_nominal,omitempty"`
	CumulativeReal    []float64 `json:"cumulative_real,omitempty"`

	// SyntheticInflation is set when the inflation series had too few
	// overlapping dates and a synthetic daily path was substituted.
	SyntheticInflation bool `json:"synthetic_inflation"`
}

// InflationComparison reports, for one asset, which inflation measure
// it held up better against. Returns are annualized real fractions.
type InflationComparison struct {
	Symbol            string  `json:"symbol"`
	CPIAnnualReal     float64 `json:"cpi_real_return"`
	PTheoryAnnualReal float64 `json:"p_theory_real_return"`
	Difference        float64 `json:"difference"`
	BetterAgainst     string  `json:"better_against"`
}
