package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/internal/research"
	"github.com/dmarks/debasement/internal/returns"
	"github.com/dmarks/debasement/internal/signals"
	"github.com/dmarks/debasement/pkg/config"
	"github.com/dmarks/debasement/pkg/logger"
)

type emptyFetcher struct{}

func (emptyFetcher) FetchSeries(ctx context.Context, identifier string, from, to time.Time) (contracts.TimeSeries, error) {
	return contracts.TimeSeries{}, contracts.ErrDataUnavailable
}

func (emptyFetcher) FetchAll(ctx context.Context, identifiers []string, from, to time.Time) map[string]contracts.TimeSeries {
	return map[string]contracts.TimeSeries{}
}

type captureBroadcaster struct {
	signals []contracts.CompositeSignal
}

func (c *captureBroadcaster) BroadcastSignal(signal contracts.CompositeSignal) {
	c.signals = append(c.signals, signal)
}

type captureArchiver struct {
	saved int
}

func (c *captureArchiver) SaveComposite(ctx context.Context, signal contracts.CompositeSignal) error {
	c.saved++
	return nil
}

func TestRefreshJobRun(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "error"}
	log := logger.New(cfg)

	// No real data reachable; synthetic fallback keeps the job green.
	service := research.NewService(emptyFetcher{}, returns.NewEngine(log), log, true)
	detector := signals.NewDetector(log, signals.DefaultThresholds())
	snapshots := research.NewSnapshotStore()
	broadcaster := &captureBroadcaster{}
	archiver := &captureArchiver{}

	job := NewRefreshJob(service, detector, snapshots, broadcaster, archiver, log, "0 0 6 * * *", 2)

	if job.Name() != "research_refresh" {
		t.Errorf("Name = %q", job.Name())
	}
	if job.Schedule() != "0 0 6 * * *" {
		t.Errorf("Schedule = %q", job.Schedule())
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap, ok := snapshots.Get()
	if !ok {
		t.Fatal("expected snapshot after refresh")
	}
	if !snap.Frame.Synthetic {
		t.Error("expected synthetic frame with no reachable data")
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}

	if len(broadcaster.signals) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(broadcaster.signals))
	}
	if archiver.saved != 1 {
		t.Errorf("archived = %d, want 1", archiver.saved)
	}
}

func TestRefreshJobNilSinks(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "error"}
	log := logger.New(cfg)

	service := research.NewService(emptyFetcher{}, returns.NewEngine(log), log, true)
	detector := signals.NewDetector(log, signals.DefaultThresholds())
	snapshots := research.NewSnapshotStore()

	job := NewRefreshJob(service, detector, snapshots, nil, nil, log, "@daily", 1)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run with nil sinks failed: %v", err)
	}
}
