package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [identifiers...]",
	Short: "Fetch time series",
	Long: `Fetches one or more series through the provider chain and prints
what came back. FRED series IDs, crypto pairs, and tickers are all
accepted; each is routed to its providers with fallback.

Example:
  go run ./cmd/debasement fetch CPIAUCSL M2SL
  go run ./cmd/debasement fetch BTC-USD GLD --days 365`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

var (
	fetchFrom string
	fetchTo   string
	fetchDays int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "window start (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "window end (YYYY-MM-DD)")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 730, "lookback when --from is not set")
}

func runFetch(cmd *cobra.Command, args []string) error {
	d, err := initDeps(false)
	if err != nil {
		return err
	}
	defer d.close()

	from, to, err := resolveWindow(fetchFrom, fetchTo, fetchDays)
	if err != nil {
		return err
	}

	PrintHeader("Fetch Series")
	PrintKeyValue("Window", fmt.Sprintf("%s ~ %s", from.Format("2006-01-02"), to.Format("2006-01-02")), 10)
	PrintKeyValue("Series", fmt.Sprintf("%d", len(args)), 10)
	fmt.Println()

	start := time.Now()
	results := d.fetcher.FetchAll(context.Background(), args, from, to)

	widths := []int{12, 8, 12, 12, 14}
	PrintTableHeader([]string{"IDENTIFIER", "POINTS", "FIRST", "LAST", "LAST VALUE"}, widths)

	failed := 0
	for _, id := range args {
		ts, ok := results[id]
		if !ok {
			PrintTableRow([]string{id, "-", "-", "-", "unavailable"}, widths)
			failed++
			continue
		}
		first, last := ts.First(), ts.Last()
		PrintTableRow([]string{
			id,
			fmt.Sprintf("%d", ts.Len()),
			first.Date.Format("2006-01-02"),
			last.Date.Format("2006-01-02"),
			fmt.Sprintf("%.4f", last.Value),
		}, widths)
	}

	fmt.Println()
	if failed > 0 {
		PrintWarning(fmt.Sprintf("%d of %d series unavailable", failed, len(args)))
	}
	PrintSuccess(fmt.Sprintf("Fetched %d series in %.2fs", len(results), time.Since(start).Seconds()))
	return nil
}

// resolveWindow turns from/to/days flags into a concrete window.
func resolveWindow(fromStr, toStr string, days int) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	if toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -days)
	if fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
		}
		from = parsed
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("window start %s is not before end %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return from, to, nil
}
