// Package jobs holds the scheduled jobs wired into the scheduler.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/internal/research"
	"github.com/dmarks/debasement/internal/signals"
	"github.com/dmarks/debasement/pkg/logger"
)

// Broadcaster pushes a fresh composite signal to live subscribers.
type Broadcaster interface {
	BroadcastSignal(signal contracts.CompositeSignal)
}

// Archiver persists composite signal snapshots.
type Archiver interface {
	SaveComposite(ctx context.Context, signal contracts.CompositeSignal) error
}

// RefreshJob rebuilds the research frame, reruns signal detection,
// publishes the new snapshot, and optionally archives the composite.
type RefreshJob struct {
	service     *research.Service
	detector    *signals.Detector
	snapshots   *research.SnapshotStore
	broadcaster Broadcaster // nil when no websocket hub runs
	archiver    Archiver    // nil when the archive store is disabled
	logger      *logger.Logger

	schedule      string
	lookbackYears int
}

// NewRefreshJob creates the refresh job. broadcaster and archiver may
// be nil.
func NewRefreshJob(
	service *research.Service,
	detector *signals.Detector,
	snapshots *research.SnapshotStore,
	broadcaster Broadcaster,
	archiver Archiver,
	log *logger.Logger,
	schedule string,
	lookbackYears int,
) *RefreshJob {
	return &RefreshJob{
		service:       service,
		detector:      detector,
		snapshots:     snapshots,
		broadcaster:   broadcaster,
		archiver:      archiver,
		logger:        log.WithField("job", "refresh"),
		schedule:      schedule,
		lookbackYears: lookbackYears,
	}
}

// Name implements scheduler.Job.
func (j *RefreshJob) Name() string { return "research_refresh" }

// Schedule implements scheduler.Job.
func (j *RefreshJob) Schedule() string { return j.schedule }

// Run implements scheduler.Job.
func (j *RefreshJob) Run(ctx context.Context) error {
	to := time.Now().UTC()
	from := to.AddDate(-j.lookbackYears, 0, 0)

	frame, err := j.service.ResearchFrame(ctx, from, to)
	if err != nil {
		return fmt.Errorf("refresh research frame failed: %w", err)
	}

	composite := j.detector.Detect(frame.AlignedFrame)

	j.snapshots.Set(&research.Snapshot{
		Frame:     frame,
		Composite: composite,
		UpdatedAt: time.Now().UTC(),
	})

	if j.broadcaster != nil {
		j.broadcaster.BroadcastSignal(composite)
	}

	if j.archiver != nil {
		if err := j.archiver.SaveComposite(ctx, composite); err != nil {
			// Archival is best effort; the snapshot already serves.
			j.logger.WithError(err).Warn("Composite archive failed")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"rows":      frame.Len(),
		"synthetic": frame.Synthetic,
		"score":     composite.Score,
		"level":     composite.Level,
	}).Info("Research snapshot refreshed")
	return nil
}
