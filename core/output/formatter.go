// Package output renders cost breakdowns for people and machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"move-cost/core/types"
	"move-cost/core/ui"
	cerrors "move-cost/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats
var Formats = []Format{FormatCLI, FormatJSON, FormatMarkdown}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given result
	Render(w io.Writer, result *types.CostBreakdown) error
}

// Options tunes rendering
type Options struct {
	// Details includes the itemized breakdown
	Details bool

	// Lineage includes the per-stage formulas
	Lineage bool
}

// New returns the formatter for format
func New(format Format, opts Options) (Formatter, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatCLI:
		return &cliFormatter{opts: opts, p: printer()}, nil
	case FormatJSON:
		return &jsonFormatter{opts: opts}, nil
	case FormatMarkdown:
		return &markdownFormatter{opts: opts, p: printer()}, nil
	}
	return nil, cerrors.Inputf("unknown output format %q (want cli, json or markdown)", format)
}

func printer() *message.Printer {
	return message.NewPrinter(language.AmericanEnglish)
}

// Money renders an amount as US dollars with thousands separators
func Money(p *message.Printer, amount decimal.Decimal) string {
	if amount.IsNegative() {
		return p.Sprintf("-$%.2f", amount.Abs().InexactFloat64())
	}
	return p.Sprintf("$%.2f", amount.InexactFloat64())
}

// line is one labeled row of a report
type line struct {
	label  string
	amount string
}

// lines lists the itemized rows shared by the text formats
func lines(p *message.Printer, r *types.CostBreakdown) []line {
	b := r.Breakdown
	rows := []line{
		{"Transportation (" + b.TransportationWeightBracket + ", " + b.TransportationDistanceBracket + ")", Money(p, b.TransportationCost.Decimal)},
		{fmt.Sprintf("Material (x%s tier)", b.MaterialWeightAdjustment), Money(p, b.MaterialAdjustedCost.Decimal)},
		{fmt.Sprintf("Packing: %s (x%s)", b.PackingService, b.PackingMultiplier), Money(p, b.PackingCost.Decimal)},
		{fmt.Sprintf("Storage: %s (x%s)", b.StorageOption, b.StorageMultiplier), Money(p, b.StorageCost.Decimal)},
		{fmt.Sprintf("Regional: %s / %s (x%s)", b.OriginRegion, b.DestinationRegion, b.RegionalAdjustment), Money(p, b.RegionalCostAdjustment.Decimal)},
		{"Insurance", Money(p, b.InsuranceCost.Decimal)},
		{fmt.Sprintf("Fuel surcharge (%s)", percent(b.FuelSurchargeRate)), Money(p, b.FuelCharge.Decimal)},
	}
	if b.DiscountAmount.IsPositive() {
		rows = append(rows, line{fmt.Sprintf("Discount (%s)", percent(b.DiscountRate)), Money(p, b.DiscountAmount.Neg())})
	}
	rows = append(rows,
		line{"Subtotal", Money(p, b.SubtotalBeforeTariffs.Decimal)},
		line{"Tariff: " + b.TariffDescription, Money(p, b.InterstateTariff.Decimal)},
		line{"State tax (" + orDash(b.DestinationState) + ")", Money(p, b.StateTax.Decimal)},
	)
	return rows
}

func percent(f types.Fixed) string {
	return f.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type jsonFormatter struct {
	opts Options
}

func (f *jsonFormatter) Format() Format { return FormatJSON }

func (f *jsonFormatter) Render(w io.Writer, result *types.CostBreakdown) error {
	out := *result
	if !f.opts.Lineage {
		out.Lineage = nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type cliFormatter struct {
	opts Options
	p    *message.Printer
}

func (f *cliFormatter) Format() Format { return FormatCLI }

const cliWidth = 73

func (f *cliFormatter) Render(w io.Writer, result *types.CostBreakdown) error {
	bar := strings.Repeat("─", cliWidth)
	row := func(label, amount string) {
		fmt.Fprintf(w, "│ %-50s %20s │\n", ui.Truncate(label, 50), amount)
	}

	fmt.Fprintf(w, "┌%s┐\n", bar)
	fmt.Fprintf(w, "│%s│\n", center("SHOULD COST ESTIMATE", cliWidth))
	fmt.Fprintf(w, "├%s┤\n", bar)
	row(result.Origin+" → "+result.Destination, "")
	row(f.p.Sprintf("%.0f lbs, %.2f miles", result.WeightPounds, result.DistanceMiles), "")

	if f.opts.Details {
		fmt.Fprintf(w, "├%s┤\n", bar)
		for _, l := range lines(f.p, result) {
			row(l.label, l.amount)
		}
	}

	fmt.Fprintf(w, "├%s┤\n", bar)
	row("TOTAL SHOULD COST", Money(f.p, result.TotalShouldCost.Decimal))
	row("Cost per lb", Money(f.p, result.CostPerPound().Decimal))
	if result.Breakdown.AppliedMinimumCharge {
		row("Minimum charge applied", Money(f.p, result.Breakdown.MinimumCharge.Decimal))
	}
	fmt.Fprintf(w, "└%s┘\n", bar)

	if f.opts.Lineage {
		fmt.Fprintln(w)
		for _, l := range result.Lineage {
			fmt.Fprintf(w, "  %-15s %12s  %s\n", l.Stage, l.Amount, l.Formula)
		}
	}
	return nil
}

type markdownFormatter struct {
	opts Options
	p    *message.Printer
}

func (f *markdownFormatter) Format() Format { return FormatMarkdown }

func (f *markdownFormatter) Render(w io.Writer, result *types.CostBreakdown) error {
	fmt.Fprintf(w, "## Should cost: %s → %s\n\n", result.Origin, result.Destination)
	fmt.Fprintf(w, "%s lbs over %s miles\n\n", f.p.Sprintf("%.0f", result.WeightPounds), f.p.Sprintf("%.2f", result.DistanceMiles))

	if f.opts.Details {
		fmt.Fprintln(w, "| Item | Amount |")
		fmt.Fprintln(w, "|------|-------:|")
		for _, l := range lines(f.p, result) {
			fmt.Fprintf(w, "| %s | %s |\n", strings.ReplaceAll(l.label, "|", "\\|"), l.amount)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "**Total should cost: %s**", Money(f.p, result.TotalShouldCost.Decimal))
	if result.Breakdown.AppliedMinimumCharge {
		fmt.Fprint(w, " (minimum charge applied)")
	}
	fmt.Fprintln(w)

	if f.opts.Lineage {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Stage | Amount | Formula |")
		fmt.Fprintln(w, "|-------|-------:|---------|")
		for _, l := range result.Lineage {
			fmt.Fprintf(w, "| %s | %s | `%s` |\n", l.Stage, l.Amount, l.Formula)
		}
	}
	return nil
}

func center(s string, width int) string {
	pad := width - len([]rune(s))
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
