// Package cmd provides the CLI commands for movecost.
package cmd

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"move-cost/internal/config"
	cerrors "move-cost/internal/errors"
	"move-cost/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile   string
	rateTable string
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "movecost",
	Short: "Estimate should-cost for household goods moves",
	Long: `movecost prices household goods relocations against a rate table and
reports an itemized should-cost breakdown.

Examples:
  movecost quote --from "Dallas, TX" --to "Houston, TX" --weight 5000 --miles 240
  movecost quote --from "Austin, TX" --to "Los Angeles, CA" --weight 8000 -f json
  movecost bulk moves.xlsx --out results.xlsx
  movecost ratetable validate rates.yaml`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (JSON)")
	rootCmd.PersistentFlags().StringVar(&rateTable, "rates", "", "rate table file (.json, .yaml, .hcl); overrides the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(bulkCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(rateTableCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if rateTable != "" {
		cfg.RateTablePath = rateTable
	}
	config.Set(cfg)

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// parseRates turns key=value flags into custom rate overrides
func parseRates(pairs []string) (map[string]float64, error) {
	rates := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, cerrors.Inputf("invalid rate %q: want key=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, cerrors.Inputf("invalid rate %q: %q is not a number", pair, raw)
		}
		rates[key] = v
	}
	return rates, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "movecost version %s\n", Version)
	},
}
