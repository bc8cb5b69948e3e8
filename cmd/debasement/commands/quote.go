package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmarks/debasement/internal/marketdata"
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote [symbols...]",
	Short: "Current prices",
	Long: `Fetches current prices. Crypto pairs go to CoinGecko; everything
else is scraped from the Yahoo quote page.

Example:
  go run ./cmd/debasement quote GLD BTC-USD`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	d, err := initDeps(false)
	if err != nil {
		return err
	}
	defer d.close()

	ctx := context.Background()

	PrintHeader("Current Prices")
	widths := []int{10, 14, 10}
	PrintTableHeader([]string{"SYMBOL", "PRICE", "CHANGE %"}, widths)

	failed := 0
	for _, symbol := range args {
		if marketdata.Classify(symbol) == marketdata.KindCrypto {
			snap, err := d.coingecko.FetchMarketSnapshot(ctx, symbol)
			if err != nil {
				PrintTableRow([]string{symbol, "unavailable", "-"}, widths)
				failed++
				continue
			}
			PrintTableRow([]string{
				symbol,
				fmt.Sprintf("%.2f", snap.Price),
				fmt.Sprintf("%+.2f", snap.ChangePct24h),
			}, widths)
			continue
		}

		quote, err := d.yahoo.FetchQuote(ctx, symbol)
		if err != nil {
			PrintTableRow([]string{symbol, "unavailable", "-"}, widths)
			failed++
			continue
		}
		PrintTableRow([]string{
			symbol,
			fmt.Sprintf("%.2f", quote.Price),
			fmt.Sprintf("%+.2f", quote.ChangePct),
		}, widths)
	}

	if failed > 0 {
		fmt.Println()
		PrintWarning(fmt.Sprintf("%d of %d quotes unavailable", failed, len(args)))
	}
	return nil
}
