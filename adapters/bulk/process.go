package bulk

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"move-cost/adapters/distance"
	"move-cost/core/types"
	cerrors "move-cost/internal/errors"
)

// DefaultWorkers bounds concurrent row pricing when no limit is configured
const DefaultWorkers = 4

// Pricer prices a single move
type Pricer interface {
	Price(req types.MoveRequest) (*types.CostBreakdown, error)
}

// Status is the outcome of one row
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// RowResult is the outcome of pricing one row. Successful rows carry the
// full breakdown; failed rows carry the error message.
type RowResult struct {
	RowNumber      int             `json:"row_number"`
	Status         Status          `json:"status"`
	Error          string          `json:"error,omitempty"`
	Origin         string          `json:"origin"`
	Destination    string          `json:"destination"`
	DistanceSource distance.Source `json:"distance_source,omitempty"`

	*types.CostBreakdown
}

// Summary counts row outcomes
type Summary struct {
	TotalRows   int    `json:"total_rows"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
	SuccessRate string `json:"success_rate"`
}

// Report is the outcome of a bulk run
type Report struct {
	Success bool         `json:"success"`
	Results []*RowResult `json:"results"`
	Errors  []string     `json:"errors"`
	Summary Summary      `json:"summary"`
}

// FailedReport describes an upload that could not be read at all
func FailedReport(err error) *Report {
	return &Report{
		Success: false,
		Results: []*RowResult{},
		Errors:  []string{"Error processing file: " + cerrors.Message(err)},
		Summary: Summary{SuccessRate: "0%"},
	}
}

// Processor prices every row of a sheet
type Processor struct {
	pricer   Pricer
	resolver distance.Resolver
	workers  int
	logger   *zap.Logger
	onRow    func(Status)
}

// Option configures a Processor
type Option func(*Processor)

// WithResolver resolves distances for rows that leave distance_miles blank
func WithResolver(r distance.Resolver) Option {
	return func(p *Processor) { p.resolver = r }
}

// WithWorkers bounds concurrent row pricing
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the processor logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRowObserver is called once per row with its status
func WithRowObserver(fn func(Status)) Option {
	return func(p *Processor) { p.onRow = fn }
}

// NewProcessor creates a bulk processor
func NewProcessor(pricer Pricer, opts ...Option) *Processor {
	p := &Processor{pricer: pricer, workers: DefaultWorkers, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process prices every row. Row failures are recorded, never returned;
// results are in sheet order.
func (p *Processor) Process(ctx context.Context, s *Sheet, overrides types.Overrides) *Report {
	results := make([]*RowResult, len(s.Rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, row := range s.Rows {
		i, row := i, row
		g.Go(func() error {
			results[i] = p.processRow(gctx, row, overrides)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Success: true, Results: results, Errors: []string{}}
	for _, r := range results {
		if r.Status == StatusSuccess {
			report.Summary.Successful++
			continue
		}
		report.Summary.Failed++
		report.Errors = append(report.Errors, fmt.Sprintf("Row %d: %s", r.RowNumber, r.Error))
	}
	report.Summary.TotalRows = len(results)
	report.Summary.SuccessRate = successRate(report.Summary.Successful, len(results))

	p.logger.Info("bulk batch processed",
		zap.Int("rows", report.Summary.TotalRows),
		zap.Int("successful", report.Summary.Successful),
		zap.Int("failed", report.Summary.Failed))
	return report
}

func successRate(ok, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(ok)/float64(total)*100)
}

func (p *Processor) processRow(ctx context.Context, row Row, overrides types.Overrides) *RowResult {
	res := &RowResult{
		RowNumber:   row.Number,
		Origin:      row.Get(ColOrigin),
		Destination: row.Get(ColDestination),
	}

	req, source, err := p.request(ctx, row)
	if err == nil {
		req.CustomRates = overrides
		res.CostBreakdown, err = p.pricer.Price(req)
	}

	if err != nil {
		res.Status = StatusFailed
		res.Error = cerrors.Message(err)
		res.CostBreakdown = nil
		p.logger.Info("bulk row failed", zap.Int("row", row.Number), zap.Error(err))
	} else {
		res.Status = StatusSuccess
		res.DistanceSource = source
	}

	if p.onRow != nil {
		p.onRow(res.Status)
	}
	return res
}

// request builds a MoveRequest from a row, resolving distance when the row has none
func (p *Processor) request(ctx context.Context, row Row) (types.MoveRequest, distance.Source, error) {
	origin := row.Get(ColOrigin)
	destination := row.Get(ColDestination)

	weight, err := parseNumber(row.Get(ColWeight), ColWeight)
	if err != nil {
		return types.MoveRequest{}, "", err
	}

	req := types.NewMoveRequest(origin, destination, 0, weight)
	if v := row.Get(ColPackingService); v != "" {
		req.PackingService = types.PackingService(strings.ToLower(v))
	}
	if v := row.Get(ColStorageOption); v != "" {
		req.StorageOption = types.StorageOption(strings.ToLower(v))
	}
	if v := row.Get(ColIncludeInsurance); v != "" {
		req.IncludeInsurance = parseBool(v)
	}

	source := distance.SourceManual
	if raw := row.Get(ColDistanceMiles); raw != "" {
		if req.DistanceMiles, err = parseNumber(raw, ColDistanceMiles); err != nil {
			return types.MoveRequest{}, "", err
		}
	} else {
		if p.resolver == nil {
			return types.MoveRequest{}, "", cerrors.Input("Could not calculate distance. Please provide distance manually.")
		}
		resolved, err := p.resolver.Resolve(ctx, origin, destination)
		if err != nil {
			if cerrors.IsType(err, cerrors.TypeInput) {
				return types.MoveRequest{}, "", err
			}
			return types.MoveRequest{}, "", cerrors.Distance("Could not calculate distance. Please provide distance manually.", err)
		}
		req.DistanceMiles = resolved.Miles
		source = resolved.Source
	}

	return req, source, nil
}

func parseNumber(raw, column string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, cerrors.Inputf("%s %q is not a number", column, raw)
	}
	return v, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}
