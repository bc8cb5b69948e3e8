package research

import (
	"math"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
)

// syntheticFrame generates a demonstration frame over the window:
// trending CPI and price level with noise, exponentially growing money
// supply, and a volatile upward-trending hedge asset with a floor.
func (s *Service) syntheticFrame(from, to time.Time) *contracts.AlignedFrame {
	frame := &contracts.AlignedFrame{}
	for day := contracts.Day(from); !day.After(contracts.Day(to)); day = day.AddDate(0, 0, 1) {
		frame.Dates = append(frame.Dates, day)
	}
	n := frame.Len()
	if n == 0 {
		return frame
	}

	cpi := make([]float64, n)
	p := make([]float64, n)
	m2 := make([]float64, n)
	btc := make([]float64, n)

	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}

		cpi[i] = 200 + 80*t + s.rng.NormFloat64()*2
		p[i] = 180 + 120*t + s.rng.NormFloat64()*5
		m2[i] = 15000e9 * math.Exp(0.8*t)

		price := 30000 * math.Exp(1.2*t) * (1 + s.rng.NormFloat64()*0.3)
		if price < 1000 {
			price = 1000
		}
		btc[i] = price
	}

	frame.SetColumn(contracts.SeriesCPI, cpi)
	frame.SetColumn(contracts.SeriesPriceLevel, p)
	frame.SetColumn(contracts.SeriesMoneySupply, m2)
	frame.SetColumn(contracts.SeriesBitcoin, btc)
	return frame
}
