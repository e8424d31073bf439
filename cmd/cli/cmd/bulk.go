// Package cmd - bulk and template commands
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"move-cost/adapters/bulk"
	"move-cost/core/types"
	"move-cost/core/ui"
	"move-cost/internal/app"
	"move-cost/internal/config"
	cerrors "move-cost/internal/errors"
	"move-cost/internal/logging"
)

type bulkOptions struct {
	out     string
	rates   []string
	workers int
}

var bulkOpts bulkOptions

// bulkCmd prices every row of a spreadsheet
var bulkCmd = &cobra.Command{
	Use:   "bulk <file>",
	Short: "Price every move in a spreadsheet",
	Long: `Validate and price every row of an .xlsx or .csv upload.

Required columns: origin, destination, weight.
Optional columns: distance_miles, packing_service, storage_option, include_insurance.

Examples:
  movecost bulk moves.xlsx
  movecost bulk moves.csv --out results.xlsx --rate fuel_surcharge=0.15`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd.Context(), config.Get(), args[0], bulkOpts, cmd.OutOrStdout())
	},
}

// templateCmd writes an upload template
var templateCmd = &cobra.Command{
	Use:   "template <file>",
	Short: "Write a bulk upload template (.xlsx or .csv)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := writeTemplate(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", args[0])
		return nil
	},
}

func init() {
	bulkCmd.Flags().StringVarP(&bulkOpts.out, "out", "o", "", "write results to this .xlsx or .csv file")
	bulkCmd.Flags().StringArrayVar(&bulkOpts.rates, "rate", nil, "custom rate override key=value (repeatable)")
	bulkCmd.Flags().IntVar(&bulkOpts.workers, "workers", 0, "rows priced concurrently (default from config)")
}

func runBulk(ctx context.Context, cfg *config.Config, path string, opts bulkOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rates, err := parseRates(opts.rates)
	if err != nil {
		return err
	}
	var outFormat bulk.FileFormat
	if opts.out != "" {
		if outFormat, err = bulk.FormatFromFilename(opts.out); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return cerrors.Inputf("cannot open %s: %v", path, err)
	}
	defer f.Close()

	sheet, err := bulk.ReadSheet(f, path)
	if err != nil {
		return err
	}

	term := ui.NewWriter(w, !ui.IsTerminal(w))

	validation := bulk.Validate(sheet)
	for _, warning := range validation.Warnings {
		term.Warning("%s", warning)
	}
	if !validation.Valid {
		for _, e := range validation.Errors {
			term.Error("%s", e)
		}
		return cerrors.Inputf("%s is not a valid upload", path)
	}

	deps, err := app.Build(cfg, logging.Logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Bulk.Workers
	}

	var progress *ui.ProgressBar
	if ui.IsTerminal(w) {
		progress = term.NewProgressBar(validation.RowCount, "Pricing")
	}
	processor := bulk.NewProcessor(deps.Pipeline,
		bulk.WithResolver(deps.Resolver),
		bulk.WithWorkers(workers),
		bulk.WithLogger(deps.Logger),
		bulk.WithRowObserver(func(s bulk.Status) {
			deps.Metrics.ObserveBulkRow(string(s))
			if progress != nil {
				progress.Increment()
			}
		}))

	report := processor.Process(ctx, sheet, types.ParseOverrides(rates))
	if progress != nil {
		progress.Done()
	}
	printReport(term, report)

	if opts.out != "" {
		out, err := os.Create(opts.out)
		if err != nil {
			return cerrors.Inputf("cannot create %s: %v", opts.out, err)
		}
		defer out.Close()
		if err := bulk.WriteResults(out, outFormat, report.Results); err != nil {
			return err
		}
		term.Success("Results written to %s", opts.out)
	}
	return nil
}

func printReport(term *ui.Writer, report *bulk.Report) {
	table := term.NewTable("Row", "Origin", "Destination", "Miles", "Should Cost").AlignRight(0, 3, 4)
	for _, r := range report.Results {
		if r.Status == bulk.StatusSuccess {
			table.AddRow(
				fmt.Sprint(r.RowNumber),
				ui.Truncate(r.Origin, 25),
				ui.Truncate(r.Destination, 25),
				strconv.FormatFloat(r.DistanceMiles, 'f', -1, 64),
				"$"+r.TotalShouldCost.StringFixed(2))
		}
	}
	if report.Summary.Successful > 0 {
		table.Render()
	}
	for _, e := range report.Errors {
		term.Error("%s", e)
	}

	term.Println("")
	summary := fmt.Sprintf("%d rows: %d successful, %d failed (%s)",
		report.Summary.TotalRows, report.Summary.Successful, report.Summary.Failed, report.Summary.SuccessRate)
	if report.Summary.Failed == 0 {
		term.Success("%s", summary)
	} else {
		term.Warning("%s", summary)
	}
}

func writeTemplate(path string) error {
	format, err := bulk.FormatFromFilename(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return cerrors.Inputf("cannot create %s: %v", path, err)
	}
	defer f.Close()
	return bulk.WriteTemplate(f, format)
}
