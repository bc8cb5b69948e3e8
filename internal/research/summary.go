package research

import (
	"sort"

	"github.com/dmarks/debasement/internal/contracts"
)

// Summary condenses a multi-asset analysis.
type Summary struct {
	Assets           int     `json:"assets"`
	BeatingInflation int     `json:"beating_inflation"`
	BestSymbol       string  `json:"best_symbol,omitempty"`
	BestAnnualReal   float64 `json:"best_annual_real"`
	WorstSymbol      string  `json:"worst_symbol,omitempty"`
	WorstAnnualReal  float64 `json:"worst_annual_real"`
	MeanAnnualReal   float64 `json:"mean_annual_real"`
}

// Summarize computes headline numbers across asset results.
func Summarize(results map[string]contracts.ReturnsResult) Summary {
	s := Summary{Assets: len(results)}
	if len(results) == 0 {
		return s
	}

	first := true
	sum := 0.0
	for symbol, r := range results {
		sum += r.AnnualizedReal
		if r.TotalRealPct > 0 {
			s.BeatingInflation++
		}
		if first || r.AnnualizedReal > s.BestAnnualReal {
			s.BestSymbol, s.BestAnnualReal = symbol, r.AnnualizedReal
		}
		if first || r.AnnualizedReal < s.WorstAnnualReal {
			s.WorstSymbol, s.WorstAnnualReal = symbol, r.AnnualizedReal
		}
		first = false
	}
	s.MeanAnnualReal = sum / float64(len(results))
	return s
}

// TopPerformers returns up to n results ordered by annualized real
// return, best first. Ties break on symbol for stable output.
func TopPerformers(results map[string]contracts.ReturnsResult, n int) []contracts.ReturnsResult {
	ranked := make([]contracts.ReturnsResult, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AnnualizedReal != ranked[j].AnnualizedReal {
			return ranked[i].AnnualizedReal > ranked[j].AnnualizedReal
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
