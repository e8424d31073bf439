// Package cmd - quote command
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"move-cost/core/output"
	"move-cost/core/types"
	"move-cost/internal/app"
	"move-cost/internal/config"
	cerrors "move-cost/internal/errors"
	"move-cost/internal/logging"
)

type quoteOptions struct {
	origin      string
	destination string
	weight      float64
	miles       float64
	packing     string
	storage     string
	noInsurance bool
	rates       []string
	format      string
	details     bool
	lineage     bool
}

var quoteOpts quoteOptions

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a single move",
	Long: `Price a single move and print the itemized breakdown.

When --miles is omitted the distance is resolved from the locations,
using the mapping service when an API key is configured and great-circle
distance otherwise.

Examples:
  movecost quote --from "Dallas, TX" --to "Houston, TX" --weight 5000 --miles 240
  movecost quote --from "Austin, TX" --to "Miami, FL" --weight 8000 --packing full_pack
  movecost quote --from "Dallas, TX" --to "Houston, TX" --weight 5000 --rate discount=0.1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuote(cmd.Context(), config.Get(), quoteOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := quoteCmd.Flags()
	f.StringVar(&quoteOpts.origin, "from", "", "origin (city, state or ZIP)")
	f.StringVar(&quoteOpts.destination, "to", "", "destination (city, state or ZIP)")
	f.Float64VarP(&quoteOpts.weight, "weight", "w", 0, "shipment weight in pounds")
	f.Float64VarP(&quoteOpts.miles, "miles", "m", 0, "distance in miles (resolved when omitted)")
	f.StringVar(&quoteOpts.packing, "packing", string(types.PackingSelf), "self_pack, partial_pack or full_pack")
	f.StringVar(&quoteOpts.storage, "storage", string(types.StorageNone), "no_storage, storage_30days or storage_60days")
	f.BoolVar(&quoteOpts.noInsurance, "no-insurance", false, "exclude valuation coverage")
	f.StringArrayVar(&quoteOpts.rates, "rate", nil, "custom rate override key=value (repeatable)")
	f.StringVarP(&quoteOpts.format, "format", "f", string(output.FormatCLI), "output format (cli, json, markdown)")
	f.BoolVarP(&quoteOpts.details, "details", "d", true, "show detailed cost breakdown")
	f.BoolVar(&quoteOpts.lineage, "lineage", false, "show per-stage formulas")

	_ = quoteCmd.MarkFlagRequired("from")
	_ = quoteCmd.MarkFlagRequired("to")
	_ = quoteCmd.MarkFlagRequired("weight")
}

func runQuote(ctx context.Context, cfg *config.Config, opts quoteOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, err := output.New(output.Format(opts.format), output.Options{Details: opts.details, Lineage: opts.lineage})
	if err != nil {
		return err
	}
	rates, err := parseRates(opts.rates)
	if err != nil {
		return err
	}

	deps, err := app.Build(cfg, logging.Logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	req := types.NewMoveRequest(opts.origin, opts.destination, opts.miles, opts.weight)
	req.PackingService = types.PackingService(opts.packing)
	req.StorageOption = types.StorageOption(opts.storage)
	req.IncludeInsurance = !opts.noInsurance
	req.CustomRates = types.ParseOverrides(rates)

	if req.DistanceMiles == 0 {
		res, err := deps.Resolver.Resolve(ctx, req.Origin, req.Destination)
		if err != nil {
			if cerrors.IsType(err, cerrors.TypeInput) {
				return err
			}
			return fmt.Errorf("%s; pass --miles: %w", cerrors.Message(err), err)
		}
		logging.Debug("distance resolved",
			zap.String("source", string(res.Source)),
			zap.Float64("miles", res.Miles))
		req.DistanceMiles = res.Miles
	}

	result, err := deps.Pipeline.Price(req)
	if err != nil {
		return err
	}
	return formatter.Render(w, result)
}
