// Package marketdata is the single entry point for fetching time
// series from external providers. It routes identifiers to the right
// provider, paces requests, retries across provider fallbacks, and
// caches results by identifier and window.
package marketdata

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/internal/external/fred"
	"github.com/dmarks/debasement/pkg/config"
	"github.com/dmarks/debasement/pkg/logger"
	"github.com/dmarks/debasement/pkg/redis"
)

// Kind classifies an identifier by its provider family.
type Kind string

const (
	KindEconomic Kind = "economic" // FRED series
	KindCrypto   Kind = "crypto"   // CoinGecko first, Yahoo fallback
	KindEquity   Kind = "equity"   // Yahoo only
)

// fredSeriesIDs is the set of identifiers served by FRED.
var fredSeriesIDs = map[string]bool{
	fred.SeriesCPI:        true,
	fred.SeriesM2:         true,
	fred.SeriesM2Weekly:   true,
	fred.SeriesM2Velocity: true,
	fred.SeriesRealGDP:    true,
	fred.SeriesGDP:        true,
	fred.SeriesFedFunds:   true,
	fred.SeriesUnemployed: true,
}

// Classify decides which provider family serves an identifier.
func Classify(identifier string) Kind {
	upper := strings.ToUpper(identifier)
	if fredSeriesIDs[upper] {
		return KindEconomic
	}
	if strings.HasPrefix(upper, "BTC") || strings.HasPrefix(upper, "ETH") ||
		upper == "BITCOIN" || upper == "ETHEREUM" {
		return KindCrypto
	}
	return KindEquity
}

// EconomicSource fetches economic series.
type EconomicSource interface {
	FetchSeries(ctx context.Context, seriesID string, from, to time.Time) (contracts.TimeSeries, error)
}

// PriceSource fetches asset price series.
type PriceSource interface {
	FetchPrices(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error)
}

// Fetcher fetches series with routing, pacing, and caching.
type Fetcher struct {
	economic EconomicSource
	crypto   PriceSource
	equity   PriceSource

	pacer  *Pacer
	cache  *seriesCache
	logger *logger.Logger

	strategyTimeout time.Duration
	workers         int
	batchSize       int
	attemptPause    [2]time.Duration
	batchPause      [2]time.Duration
	rng             *rand.Rand
}

// NewFetcher creates a fetcher. remoteCache may be nil when Redis is
// disabled.
func NewFetcher(
	cfg *config.Config,
	log *logger.Logger,
	economic EconomicSource,
	crypto PriceSource,
	equity PriceSource,
	remoteCache *redis.Cache,
) *Fetcher {
	flog := log.WithField("component", "marketdata")
	return &Fetcher{
		economic:        economic,
		crypto:          crypto,
		equity:          equity,
		pacer:           NewPacer(flog, cfg.Fetch.MinRequestInterval, cfg.Fetch.LongPauseEvery),
		cache:           newSeriesCache(remoteCache),
		logger:          flog,
		strategyTimeout: cfg.Fetch.StrategyTimeout,
		workers:         cfg.Fetch.Workers,
		batchSize:       cfg.Fetch.BatchSize,
		attemptPause:    [2]time.Duration{cfg.Fetch.AttemptPauseMin, cfg.Fetch.AttemptPauseMax},
		batchPause:      [2]time.Duration{cfg.Fetch.BatchPauseMin, cfg.Fetch.BatchPauseMax},
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchSeries fetches one identifier for a window. Cached windows are
// served without touching any provider. Provider attempts run under a
// per-attempt timeout; a timed-out attempt counts as a failed attempt,
// not a failed fetch.
func (f *Fetcher) FetchSeries(ctx context.Context, identifier string, from, to time.Time) (contracts.TimeSeries, error) {
	key := cacheKey(identifier, from, to)
	if ts, ok := f.cache.get(ctx, key); ok {
		f.logger.WithField("identifier", identifier).Debug("Cache hit")
		return ts, nil
	}

	attempts := f.attemptsFor(identifier)

	var lastErr error
	for i, attempt := range attempts {
		if err := f.pacer.Wait(ctx); err != nil {
			return contracts.TimeSeries{}, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, f.strategyTimeout)
		ts, err := attempt.run(attemptCtx, identifier, from, to)
		cancel()

		if err != nil {
			f.logger.WithFields(map[string]interface{}{
				"identifier": identifier,
				"source":     attempt.name,
				"error":      err.Error(),
			}).Warn("Source attempt failed")
			lastErr = err

			if ctx.Err() != nil {
				return contracts.TimeSeries{}, ctx.Err()
			}
			if i < len(attempts)-1 {
				_ = sleepCtx(ctx, randomDuration(f.rng, f.attemptPause[0], f.attemptPause[1]))
			}
			continue
		}
		if ts.IsEmpty() {
			lastErr = fmt.Errorf("%s returned no data", attempt.name)
			continue
		}

		f.cache.put(ctx, key, ts)
		f.logger.WithFields(map[string]interface{}{
			"identifier": identifier,
			"source":     attempt.name,
			"count":      ts.Len(),
		}).Info("Fetched series")
		return ts, nil
	}

	return contracts.TimeSeries{}, fmt.Errorf("%s: %v: %w", identifier, lastErr, contracts.ErrDataUnavailable)
}

type sourceAttempt struct {
	name string
	run  func(context.Context, string, time.Time, time.Time) (contracts.TimeSeries, error)
}

// attemptsFor builds the ordered provider chain for an identifier.
func (f *Fetcher) attemptsFor(identifier string) []sourceAttempt {
	switch Classify(identifier) {
	case KindEconomic:
		return []sourceAttempt{
			{"fred", f.economic.FetchSeries},
		}
	case KindCrypto:
		return []sourceAttempt{
			{"coingecko", f.crypto.FetchPrices},
			{"yahoo", f.equity.FetchPrices},
		}
	default:
		return []sourceAttempt{
			{"yahoo", f.equity.FetchPrices},
		}
	}
}

// Status reports adapter counters for the status endpoint.
type Status struct {
	Requests    int `json:"requests"`
	CachedSlots int `json:"cached_slots"`
}

// Status returns current adapter counters.
func (f *Fetcher) Status() Status {
	return Status{
		Requests:    f.pacer.Requests(),
		CachedSlots: f.cache.size(),
	}
}

// ClearCache drops the local fetch cache.
func (f *Fetcher) ClearCache() {
	f.cache.clear()
	f.logger.Info("Fetch cache cleared")
}
