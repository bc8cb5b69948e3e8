package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarks/debasement/internal/research"
	"github.com/dmarks/debasement/internal/scheduler"
	"github.com/dmarks/debasement/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the refresh scheduler",
	Long: `Runs the background refresh scheduler without the API server, or
inspects its jobs.

Subcommands:
  start   - run the scheduler daemon
  list    - list registered jobs
  run     - run a job once, synchronously
  status  - show job execution statistics

Example:
  go run ./cmd/debasement scheduler start
  go run ./cmd/debasement scheduler run research_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler daemon",
		Long: `Starts the scheduler and keeps it running until interrupted.

Registered jobs:
- research_refresh: rebuilds the research frame, recomputes the
  composite signal, and archives it when the database is enabled.`,
		RunE: runSchedulerDaemon,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listSchedulerJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job once, synchronously",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution statistics",
		RunE:  showSchedulerStatus,
	}
)

var (
	schedSchedule string
	schedLookback int
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedSchedule, "schedule", "0 0 6 * * *", "cron schedule for the research refresh job")
	schedulerCmd.PersistentFlags().IntVar(&schedLookback, "lookback", 2, "refresh window in years")
}

// initScheduler wires the headless scheduler stack. There is no
// websocket hub here; the refresh job only updates the snapshot store
// and the archive.
func initScheduler() (*scheduler.Scheduler, map[string]scheduler.Job, *deps, error) {
	d, err := initDeps(true)
	if err != nil {
		return nil, nil, nil, err
	}

	snapshots := research.NewSnapshotStore()

	var archiver jobs.Archiver
	if d.archive != nil {
		archiver = d.archive
	}

	sched := scheduler.New(d.logger)
	refresh := jobs.NewRefreshJob(d.service, d.detector, snapshots, nil, archiver, d.logger, schedSchedule, schedLookback)
	if err := sched.AddJob(refresh); err != nil {
		d.close()
		return nil, nil, nil, fmt.Errorf("register refresh job: %w", err)
	}

	byName := map[string]scheduler.Job{refresh.Name(): refresh}
	return sched, byName, d, nil
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Debasement Research Scheduler ===")

	sched, _, d, err := initScheduler()
	if err != nil {
		return err
	}
	defer d.close()

	sched.Start()

	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.Jobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listSchedulerJobs(cmd *cobra.Command, args []string) error {
	sched, _, d, err := initScheduler()
	if err != nil {
		return err
	}
	defer d.close()

	fmt.Println("Registered jobs:")
	for _, name := range sched.Jobs() {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	_, byName, d, err := initScheduler()
	if err != nil {
		return err
	}
	defer d.close()

	job, ok := byName[args[0]]
	if !ok {
		return fmt.Errorf("job %s not found", args[0])
	}

	fmt.Printf("Running job: %s\n", job.Name())
	if err := job.Run(context.Background()); err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	PrintSuccess("Job completed")
	return nil
}

func showSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, _, d, err := initScheduler()
	if err != nil {
		return err
	}
	defer d.close()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, name := range sched.Jobs() {
		history, err := sched.History(name)
		if err != nil {
			continue
		}

		fmt.Printf("%s\n", name)
		fmt.Printf("   Total Runs: %d\n", len(history.Results))
		fmt.Printf("   Success Rate: %.1f%%\n", history.SuccessRate()*100)

		if last, ok := history.Latest(); ok {
			fmt.Printf("   Last Run: %s (%s)\n",
				last.StartTime.Format("2006-01-02 15:04:05"), last.Duration.Round(10*time.Millisecond))
			if !last.Success {
				fmt.Printf("   Last Error: %s\n", last.Error)
			}
		}
		fmt.Println()
	}

	return nil
}
