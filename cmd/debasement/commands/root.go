package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "debasement",
	Short: "Monetary debasement research backend",
	Long: `Debasement Research CLI

Fetches macro and asset series, derives the quantity-theory price
level, computes inflation-adjusted returns, and grades debasement
signals.

Usage:
  go run ./cmd/debasement [command]

Examples:
  go run ./cmd/debasement api
  go run ./cmd/debasement fetch CPIAUCSL M2SL BTC-USD
  go run ./cmd/debasement analyze GLD BTC-USD
  go run ./cmd/debasement signals`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
