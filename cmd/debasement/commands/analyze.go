package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dmarks/debasement/internal/research"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbols...]",
	Short: "Inflation-adjusted returns analysis",
	Long: `Fetches asset prices and adjusts nominal returns by two inflation
measures, observed CPI and the theoretical P = MV/Q price level, then
reports which measure each asset held up better against. When a
measure's overlap is too thin the engine falls back to synthetic
inflation and marks the result accordingly.

Example:
  go run ./cmd/debasement analyze GLD BTC-USD
  go run ./cmd/debasement analyze SPY --from 2020-01-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeFrom string
	analyzeTo   string
	analyzeDays int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "window start (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "window end (YYYY-MM-DD)")
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 730, "lookback when --from is not set")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	d, err := initDeps(false)
	if err != nil {
		return err
	}
	defer d.close()

	from, to, err := resolveWindow(analyzeFrom, analyzeTo, analyzeDays)
	if err != nil {
		return err
	}

	PrintHeader("Real Returns Analysis")
	PrintKeyValue("Window", fmt.Sprintf("%s ~ %s", from.Format("2006-01-02"), to.Format("2006-01-02")), 10)
	PrintKeyValue("Symbols", fmt.Sprintf("%d", len(args)), 10)
	fmt.Println()

	analysis, err := d.service.AnalyzeAssets(context.Background(), args, from, to)
	if err != nil {
		return fmt.Errorf("analyze assets: %w", err)
	}

	widths := []int{10, 12, 12, 12, 10, 8, 10}
	PrintTableHeader([]string{"SYMBOL", "NOMINAL %", "REAL %", "ANN REAL %", "VOL %", "SHARPE", "INFLATION"}, widths)

	symbols := make([]string, 0, len(analysis.Results))
	for symbol := range analysis.Results {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		r := analysis.Results[symbol]
		inflation := "observed"
		if r.SyntheticInflation {
			inflation = "synthetic"
		}
		PrintTableRow([]string{
			symbol,
			fmt.Sprintf("%.2f", r.TotalNominalPct),
			fmt.Sprintf("%.2f", r.TotalRealPct),
			fmt.Sprintf("%.2f", r.AnnualizedReal*100),
			fmt.Sprintf("%.2f", r.RealVolatility*100),
			fmt.Sprintf("%.2f", r.RealSharpe),
			inflation,
		}, widths)
	}

	if len(analysis.Comparisons) > 0 {
		fmt.Println()
		compWidths := []int{10, 14, 14, 10}
		PrintTableHeader([]string{"SYMBOL", "VS CPI %", "VS P=MV/Q %", "BETTER VS"}, compWidths)
		for _, c := range analysis.Comparisons {
			PrintTableRow([]string{
				c.Symbol,
				fmt.Sprintf("%.2f", c.CPIAnnualReal*100),
				fmt.Sprintf("%.2f", c.PTheoryAnnualReal*100),
				c.BetterAgainst,
			}, compWidths)
		}
	}

	if len(analysis.Failed) > 0 {
		fmt.Println()
		PrintWarning(fmt.Sprintf("Failed: %v", analysis.Failed))
	}

	summary := research.Summarize(analysis.Results)
	fmt.Println()
	PrintSeparator()
	PrintKeyValue("Beating inflation", fmt.Sprintf("%d of %d", summary.BeatingInflation, summary.Assets), 18)
	PrintKeyValue("Best", fmt.Sprintf("%s (%.2f%% ann. real)", summary.BestSymbol, summary.BestAnnualReal*100), 18)
	PrintKeyValue("Worst", fmt.Sprintf("%s (%.2f%% ann. real)", summary.WorstSymbol, summary.WorstAnnualReal*100), 18)
	PrintKeyValue("Mean ann. real", fmt.Sprintf("%.2f%%", summary.MeanAnnualReal*100), 18)

	if d.archive != nil {
		for _, symbol := range symbols {
			if err := d.archive.SaveReturns(context.Background(), analysis.Results[symbol]); err != nil {
				d.logger.WithError(err).Warn("Result archive failed")
			}
		}
		PrintSuccess("Results archived")
	}

	return nil
}
