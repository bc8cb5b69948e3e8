package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarks/debasement/internal/api"
	"github.com/dmarks/debasement/internal/api/handlers"
	"github.com/dmarks/debasement/internal/research"
	"github.com/dmarks/debasement/internal/scheduler"
	"github.com/dmarks/debasement/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server with the background refresh scheduler.

Endpoints:
  GET  /health                        - Health check
  GET  /api/research/frame            - Aligned research frame
  GET  /api/research/series/{name}    - One frame column
  POST /api/returns/analyze           - Inflation-adjusted returns
  GET  /api/signals                   - Composite debasement signal
  GET  /api/signals/recommendations   - Plain-language guidance
  GET  /api/status                    - Adapter counters and freshness
  POST /api/cache/clear               - Drop the fetch cache
  GET  /ws/signals                    - WebSocket signal pushes

Example:
  go run ./cmd/debasement api
  go run ./cmd/debasement api --port 8089`,
	RunE: runAPIServer,
}

var (
	apiPort         string
	refreshSchedule string
	refreshLookback int
	noSynthetic     bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
	apiCmd.Flags().StringVar(&refreshSchedule, "refresh-schedule", "0 0 6 * * *", "cron schedule for the research refresh job")
	apiCmd.Flags().IntVar(&refreshLookback, "refresh-lookback", 2, "refresh window in years")
	apiCmd.Flags().BoolVar(&noSynthetic, "no-synthetic", false, "fail instead of serving synthetic demonstration data")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Debasement Research API ===")

	d, err := initDeps(!noSynthetic)
	if err != nil {
		return err
	}
	defer d.close()

	if apiPort != "" {
		d.cfg.Port = apiPort
	}

	log := d.logger
	log.WithFields(map[string]interface{}{
		"port": d.cfg.Port,
		"env":  d.cfg.Env,
	}).Info("Initializing API server")

	// Snapshot store and websocket hub
	snapshots := research.NewSnapshotStore()
	hub := handlers.NewHub(log)
	defer hub.Close()

	// Handlers
	researchHandler := handlers.NewResearchHandler(d.service, snapshots, d.fetcher, log)
	var returnsArchiver handlers.ReturnsArchiver
	var compositeArchiver jobs.Archiver
	if d.archive != nil {
		returnsArchiver = d.archive
		compositeArchiver = d.archive
	}
	returnsHandler := handlers.NewReturnsHandler(d.service, returnsArchiver, log)
	signalsHandler := handlers.NewSignalsHandler(d.service, d.detector, snapshots, log)

	// Router and server
	router := api.NewRouter(researchHandler, returnsHandler, signalsHandler, hub, log)
	server := api.New(d.cfg, log, router)

	// Scheduler with the refresh job
	sched := scheduler.New(log)
	refresh := jobs.NewRefreshJob(d.service, d.detector, snapshots, hub, compositeArchiver, log, refreshSchedule, refreshLookback)
	if err := sched.AddJob(refresh); err != nil {
		return fmt.Errorf("register refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Warm the snapshot so the first request does not pay the fetch cost
	if err := sched.RunNow(refresh.Name()); err != nil {
		log.WithError(err).Warn("Initial refresh trigger failed")
	}

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\nServer running on http://localhost:%s\n", d.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
