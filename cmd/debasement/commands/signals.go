package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarks/debasement/internal/signals"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Compute the composite debasement signal",
	Long: `Assembles the research frame, runs all detection rules, and prints
the composite signal with recommendations.

Rules:
  - inflation divergence: cumulative CPI change vs the quantity-theory price level
  - hedge momentum: short-window vs long-window Bitcoin returns
  - money growth acceleration: recent M2 growth rates vs the preceding baseline

Example:
  go run ./cmd/debasement signals
  go run ./cmd/debasement signals --years 3 --allow-synthetic`,
	RunE: runSignals,
}

var (
	signalsYears   int
	allowSynthetic bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().IntVar(&signalsYears, "years", 2, "lookback window in years")
	signalsCmd.Flags().BoolVar(&allowSynthetic, "allow-synthetic", false, "use synthetic demonstration data when providers are unreachable")
}

func runSignals(cmd *cobra.Command, args []string) error {
	d, err := initDeps(allowSynthetic)
	if err != nil {
		return err
	}
	defer d.close()

	to := time.Now().UTC()
	from := to.AddDate(-signalsYears, 0, 0)

	PrintHeader("Debasement Signals")
	PrintKeyValue("Window", fmt.Sprintf("%s ~ %s", from.Format("2006-01-02"), to.Format("2006-01-02")), 10)
	fmt.Println()

	frame, err := d.service.ResearchFrame(context.Background(), from, to)
	if err != nil {
		return fmt.Errorf("build research frame: %w", err)
	}
	if frame.Synthetic {
		PrintWarning("Providers unreachable; reading synthetic demonstration data")
	}

	composite := d.detector.Detect(frame.AlignedFrame)

	PrintKeyValue("Score", fmt.Sprintf("%.2f", composite.Score), 10)
	PrintKeyValue("Direction", string(composite.Direction), 10)
	PrintKeyValue("Level", string(composite.Level), 10)
	fmt.Println()

	if len(composite.Signals) == 0 {
		fmt.Println("   No rules fired.")
	} else {
		widths := []int{24, 14, 8, 10, 10}
		PrintTableHeader([]string{"SIGNAL", "DIRECTION", "SEV", "VALUE", "STRENGTH"}, widths)
		for _, sig := range composite.Signals {
			PrintTableRow([]string{
				sig.Type,
				string(sig.Direction),
				string(sig.Severity),
				fmt.Sprintf("%.2f", sig.Value),
				fmt.Sprintf("%.2f", sig.Strength),
			}, widths)
		}
	}

	fmt.Println()
	PrintSeparator()
	fmt.Println("Recommendations:")
	PrintList(signals.Recommendations(composite))

	if d.archive != nil {
		if err := d.archive.SaveComposite(context.Background(), composite); err != nil {
			d.logger.WithError(err).Warn("Composite archive failed")
		} else {
			PrintSuccess("Composite archived")
		}
	}

	return nil
}
