// Package cmd - rate table inspection commands
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"move-cost/core/ratetable"
	"move-cost/core/ui"
	"move-cost/internal/config"
	cerrors "move-cost/internal/errors"
)

var rateTableShowFormat string

var rateTableCmd = &cobra.Command{
	Use:     "ratetable",
	Aliases: []string{"rates"},
	Short:   "Inspect and validate rate tables",
	Long: `Rate table commands.

A rate table may be JSON, YAML or HCL. Without a path these commands
operate on the configured table, or the built-in table when none is set.`,
}

var rateTableValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check that a rate table loads",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRateTableValidate(tablePath(args), cmd.OutOrStdout())
	},
}

var rateTableShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print a rate table with defaults filled in",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRateTableShow(tablePath(args), rateTableShowFormat, cmd.OutOrStdout())
	},
}

func init() {
	rateTableShowCmd.Flags().StringVarP(&rateTableShowFormat, "format", "f", "yaml", "output format (yaml, json)")

	rateTableCmd.AddCommand(rateTableValidateCmd)
	rateTableCmd.AddCommand(rateTableShowCmd)
}

func tablePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return config.Get().RateTablePath
}

func runRateTableValidate(path string, w io.Writer) error {
	t, err := ratetable.LoadOrDefault(path)
	if err != nil {
		return err
	}
	ui.NewWriter(w, !ui.IsTerminal(w)).Success("%s is valid", t.Source())
	fmt.Fprintf(w, "  hash:           %s\n", t.Hash().Hex())
	fmt.Fprintf(w, "  base rate:      %s/lb\n", t.BaseRatePerPound().StringFixed(2))
	fmt.Fprintf(w, "  minimum charge: %s\n", t.MinimumCharge().StringFixed(2))
	m := t.Matrix()
	fmt.Fprintf(w, "  matrix:         %d weight x %d distance brackets\n", len(m.WeightBrackets), len(m.DistanceBrackets))
	fmt.Fprintf(w, "  state taxes:    %d\n", len(t.StateTaxes()))
	fmt.Fprintf(w, "  tariffs:        %s\n", enabled(t.TariffsEnabled()))
	return nil
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func runRateTableShow(path, format string, w io.Writer) error {
	t, err := ratetable.LoadOrDefault(path)
	if err != nil {
		return err
	}
	doc := t.Document()

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return cerrors.Inputf("unsupported format %q (want yaml or json)", format)
}
