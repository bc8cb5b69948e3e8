package marketdata

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmarks/debasement/pkg/logger"
)

// Pacer spaces outbound requests to one provider. It enforces a
// minimum interval between requests and injects a longer randomized
// pause every Nth request to stay under throttling radar.
type Pacer struct {
	limiter        *rate.Limiter
	logger         *logger.Logger
	longPauseEvery int

	mu    sync.Mutex
	count int
	rng   *rand.Rand
}

// NewPacer creates a pacer with the given minimum interval.
func NewPacer(log *logger.Logger, minInterval time.Duration, longPauseEvery int) *Pacer {
	return &Pacer{
		limiter:        rate.NewLimiter(rate.Every(minInterval), 1),
		logger:         log,
		longPauseEvery: longPauseEvery,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks until the next request may be sent.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.count++
	pause := p.count%p.longPauseEvery == 0
	var extra time.Duration
	if pause {
		extra = randomDuration(p.rng, 2*time.Second, 5*time.Second)
	}
	count := p.count
	p.mu.Unlock()

	if pause {
		p.logger.WithFields(map[string]interface{}{
			"requests": count,
			"pause":    extra,
		}).Debug("Long pause between requests")
		return sleepCtx(ctx, extra)
	}
	return nil
}

// Requests returns how many requests the pacer has released.
func (p *Pacer) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func randomDuration(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
