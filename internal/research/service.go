// Package research assembles the debasement research dataset: FRED
// macro series, derived price level, hedge asset prices, and the
// inflation spread, aligned on one daily calendar.
package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/dmarks/debasement/internal/align"
	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/internal/derive"
	"github.com/dmarks/debasement/internal/external/fred"
	"github.com/dmarks/debasement/internal/returns"
	"github.com/dmarks/debasement/pkg/logger"
)

// MinFrameRows is the smallest usable research frame. Below it the
// real data is considered unusable for analysis.
const MinFrameRows = 10

// SeriesFetcher is the slice of the market data adapter the service
// needs.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, identifier string, from, to time.Time) (contracts.TimeSeries, error)
	FetchAll(ctx context.Context, identifiers []string, from, to time.Time) map[string]contracts.TimeSeries
}

// Service builds research frames and runs asset analyses.
type Service struct {
	fetcher SeriesFetcher
	engine  *returns.Engine
	logger  *logger.Logger

	// AllowSynthetic substitutes a generated demonstration frame when
	// real data cannot be assembled. When false, callers get an error
	// instead of fabricated data.
	allowSynthetic bool

	rng *rand.Rand
}

// NewService creates a research service.
func NewService(fetcher SeriesFetcher, engine *returns.Engine, log *logger.Logger, allowSynthetic bool) *Service {
	return &Service{
		fetcher:        fetcher,
		engine:         engine,
		logger:         log.WithField("component", "research"),
		allowSynthetic: allowSynthetic,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Frame is a research frame plus provenance.
type Frame struct {
	*contracts.AlignedFrame
	Synthetic bool `json:"synthetic"`
}

// frameJSON is the wire form. The embedded frame promotes its own
// MarshalJSON, which would drop the synthetic flag without these.
type frameJSON struct {
	Frame     *contracts.AlignedFrame `json:"frame"`
	Synthetic bool                    `json:"synthetic"`
}

func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(frameJSON{Frame: f.AlignedFrame, Synthetic: f.Synthetic})
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	var fj frameJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return err
	}
	f.AlignedFrame = fj.Frame
	f.Synthetic = fj.Synthetic
	return nil
}

// ResearchFrame assembles the aligned research dataset for a window.
// Individual series failures degrade the frame rather than failing it;
// only an unusably small frame triggers the synthetic fallback (or an
// error when synthetic data is disallowed).
func (s *Service) ResearchFrame(ctx context.Context, from, to time.Time) (*Frame, error) {
	series := make(map[string]contracts.TimeSeries)

	macro := map[string]string{
		contracts.SeriesCPI:         fred.SeriesCPI,
		contracts.SeriesMoneySupply: fred.SeriesM2,
		contracts.SeriesVelocity:    fred.SeriesM2Velocity,
		contracts.SeriesRealOutput:  fred.SeriesRealGDP,
	}
	for name, id := range macro {
		ts, err := s.fetcher.FetchSeries(ctx, id, from, to)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"series": id,
				"error":  err.Error(),
			}).Warn("Macro series unavailable")
			continue
		}
		series[name] = ts
	}

	if btc, err := s.fetcher.FetchSeries(ctx, "BTC-USD", from, to); err == nil {
		series[contracts.SeriesBitcoin] = btc
	} else {
		s.logger.WithError(err).Warn("Bitcoin series unavailable")
	}

	// Derived price level needs money, velocity, and output.
	m, hasM := series[contracts.SeriesMoneySupply]
	v, hasV := series[contracts.SeriesVelocity]
	q, hasQ := series[contracts.SeriesRealOutput]
	if hasM && hasV && hasQ {
		md, vd, qd := align.ToDaily(m), align.ToDaily(v), align.ToDaily(q)
		p, err := derive.ComputePriceLevel(md, vd, qd)
		if err != nil {
			s.logger.WithError(err).Warn("Price level derivation failed")
		} else {
			series[contracts.SeriesPriceLevel] = p
		}
	}

	frame := align.Align(series)
	trimFrame(&frame, from, to)
	addInflationSpread(&frame)

	if frame.Len() >= MinFrameRows {
		s.logger.WithFields(map[string]interface{}{
			"rows":    frame.Len(),
			"columns": len(frame.Columns),
		}).Info("Research frame assembled")
		return &Frame{AlignedFrame: &frame}, nil
	}

	if !s.allowSynthetic {
		return nil, fmt.Errorf("research frame has %d rows, need %d: %w",
			frame.Len(), MinFrameRows, contracts.ErrDataUnavailable)
	}

	s.logger.Warn("Insufficient real data, generating synthetic frame")
	synth := s.syntheticFrame(from, to)
	addInflationSpread(synth)
	return &Frame{AlignedFrame: synth, Synthetic: true}, nil
}

// Analysis bundles per-asset results against both inflation measures.
// Results holds the CPI-adjusted leg; PTheory the leg adjusted by the
// derived P = MV/Q price level.
type Analysis struct {
	Results     map[string]contracts.ReturnsResult `json:"results"`
	PTheory     map[string]contracts.ReturnsResult `json:"p_theory_results,omitempty"`
	Comparisons []contracts.InflationComparison    `json:"comparisons,omitempty"`
	Failed      []string                           `json:"failed,omitempty"`
}

// AnalyzeAssets fetches each symbol and runs the real-returns engine
// twice per asset, against observed CPI and against the theoretical
// P = MV/Q price level, then records which measure the asset held up
// better against. Symbols that cannot be fetched are reported, not
// fatal.
func (s *Service) AnalyzeAssets(ctx context.Context, symbols []string, from, to time.Time) (*Analysis, error) {
	if len(symbols) == 0 {
		return nil, errors.New("no symbols given")
	}

	cpi := s.cpiLevels(ctx, from, to)
	ptheory := s.theoreticalLevels(ctx, from, to)

	prices := s.fetcher.FetchAll(ctx, symbols, from, to)

	analysis := &Analysis{
		Results: make(map[string]contracts.ReturnsResult),
		PTheory: make(map[string]contracts.ReturnsResult),
	}
	for _, symbol := range symbols {
		ts, ok := prices[symbol]
		if !ok {
			analysis.Failed = append(analysis.Failed, symbol)
			continue
		}
		cpiResult, err := s.engine.Analyze(symbol, ts, cpi, returns.MeasureCPI)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Asset analysis failed")
			analysis.Failed = append(analysis.Failed, symbol)
			continue
		}
		analysis.Results[symbol] = cpiResult

		pResult, err := s.engine.Analyze(symbol, ts, ptheory, returns.MeasurePTheory)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Theoretical-measure analysis failed")
			continue
		}
		analysis.PTheory[symbol] = pResult
		analysis.Comparisons = append(analysis.Comparisons, returns.CompareMeasures(cpiResult, pResult))
	}

	if len(analysis.Results) == 0 {
		return nil, fmt.Errorf("no symbol could be analyzed: %w", contracts.ErrDataUnavailable)
	}
	return analysis, nil
}

// cpiLevels fetches the CPI index and expands it to a daily level
// series. An unavailable CPI yields an empty series, which the
// returns engine answers with its synthetic fallback.
func (s *Service) cpiLevels(ctx context.Context, from, to time.Time) contracts.TimeSeries {
	cpi, err := s.fetcher.FetchSeries(ctx, fred.SeriesCPI, from.AddDate(-1, 0, 0), to)
	if err != nil {
		s.logger.WithError(err).Warn("CPI unavailable for inflation adjustment")
		return contracts.TimeSeries{}
	}
	return align.ToDaily(cpi)
}

// theoreticalLevels derives the P = MV/Q price level as a daily level
// series. Any missing input yields an empty series and the engine's
// synthetic fallback.
func (s *Service) theoreticalLevels(ctx context.Context, from, to time.Time) contracts.TimeSeries {
	start := from.AddDate(-1, 0, 0)

	m, errM := s.fetcher.FetchSeries(ctx, fred.SeriesM2, start, to)
	v, errV := s.fetcher.FetchSeries(ctx, fred.SeriesM2Velocity, start, to)
	q, errQ := s.fetcher.FetchSeries(ctx, fred.SeriesRealGDP, start, to)
	if errM != nil || errV != nil || errQ != nil {
		s.logger.Warn("Macro inputs unavailable for theoretical price level")
		return contracts.TimeSeries{}
	}

	p, err := derive.ComputePriceLevel(align.ToDaily(m), align.ToDaily(v), align.ToDaily(q))
	if err != nil {
		s.logger.WithError(err).Warn("Price level derivation failed")
		return contracts.TimeSeries{}
	}
	return p
}

// trimFrame cuts a frame down to [from, to].
func trimFrame(frame *contracts.AlignedFrame, from, to time.Time) {
	fd, td := contracts.Day(from), contracts.Day(to)

	lo, hi := 0, len(frame.Dates)
	for lo < hi && frame.Dates[lo].Before(fd) {
		lo++
	}
	for hi > lo && frame.Dates[hi-1].After(td) {
		hi--
	}

	frame.Dates = frame.Dates[lo:hi]
	for name, col := range frame.Columns {
		frame.Columns[name] = col[lo:hi]
	}
}

// addInflationSpread appends the spread between the cumulative change
// of actual CPI and of the derived price level, each relative to its
// first observation in the window. Values are fractions: 0.02 means
// actual inflation ran two points ahead of theoretical.
func addInflationSpread(frame *contracts.AlignedFrame) {
	cpi, hasCPI := frame.Columns[contracts.SeriesCPI]
	p, hasP := frame.Columns[contracts.SeriesPriceLevel]
	if !hasCPI || !hasP {
		return
	}

	cpiBase, okC := firstValid(cpi)
	pBase, okP := firstValid(p)
	if !okC || !okP {
		return
	}

	spread := make([]float64, frame.Len())
	for i := range spread {
		spread[i] = math.NaN()
		if math.IsNaN(cpi[i]) || math.IsNaN(p[i]) {
			continue
		}
		spread[i] = (cpi[i]/cpiBase - 1) - (p[i]/pBase - 1)
	}
	frame.SetColumn(contracts.SeriesInflationSpread, spread)
}

// firstValid returns the first non-NaN, non-zero value of a column.
func firstValid(values []float64) (float64, bool) {
	for _, v := range values {
		if !math.IsNaN(v) && v != 0 {
			return v, true
		}
	}
	return 0, false
}
