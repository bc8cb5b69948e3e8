package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
)

// FetchAll fetches many identifiers. Identifiers are split into
// sequential batches; inside a batch a small worker pool fetches
// concurrently. Failed identifiers are logged and omitted from the
// result rather than failing the whole call.
func (f *Fetcher) FetchAll(ctx context.Context, identifiers []string, from, to time.Time) map[string]contracts.TimeSeries {
	results := make(map[string]contracts.TimeSeries)
	var mu sync.Mutex

	batches := splitBatches(identifiers, f.batchSize)

	for bi, batch := range batches {
		f.logger.WithFields(map[string]interface{}{
			"batch":   bi + 1,
			"batches": len(batches),
			"symbols": batch,
		}).Info("Processing fetch batch")

		jobs := make(chan string, len(batch))
		for _, id := range batch {
			jobs <- id
		}
		close(jobs)

		workers := f.workers
		if workers > len(batch) {
			workers = len(batch)
		}

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for id := range jobs {
					ts, err := f.FetchSeries(ctx, id, from, to)
					if err != nil {
						f.logger.WithFields(map[string]interface{}{
							"identifier": id,
							"error":      err.Error(),
						}).Error("Batch fetch failed for identifier")
						continue
					}
					mu.Lock()
					results[id] = ts
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}

		// Pause between batches, not after the last one.
		if bi < len(batches)-1 {
			pause := randomDuration(f.rng, f.batchPause[0], f.batchPause[1])
			f.logger.WithField("pause", pause).Debug("Pausing between batches")
			if err := sleepCtx(ctx, pause); err != nil {
				break
			}
		}
	}

	return results
}

func splitBatches(identifiers []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var batches [][]string
	for i := 0; i < len(identifiers); i += size {
		end := i + size
		if end > len(identifiers) {
			end = len(identifiers)
		}
		batches = append(batches, identifiers[i:end])
	}
	return batches
}
