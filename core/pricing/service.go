package pricing

import (
	"time"

	"go.uber.org/zap"

	"move-cost/core/ratetable"
	"move-cost/core/types"
)

// Observer is told about every pricing call
type Observer func(result *types.CostBreakdown, err error, elapsed time.Duration)

// Pipeline prices requests against whatever table its source currently serves
type Pipeline struct {
	source   ratetable.Source
	logger   *zap.Logger
	observer Observer
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver registers a callback run after each call
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// NewPipeline creates a pipeline reading tables from source
func NewPipeline(source ratetable.Source, opts ...Option) *Pipeline {
	p := &Pipeline{source: source, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Table returns the table the next call will use
func (p *Pipeline) Table() *ratetable.Table {
	return p.source.Current()
}

// Price prices req against the current table
func (p *Pipeline) Price(req types.MoveRequest) (*types.CostBreakdown, error) {
	start := time.Now()
	result, err := Price(p.source.Current(), req)
	elapsed := time.Since(start)

	if p.observer != nil {
		p.observer(result, err, elapsed)
	}
	if err != nil {
		p.logger.Debug("quote rejected",
			zap.String("origin", req.Origin),
			zap.String("destination", req.Destination),
			zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("quote_id", result.QuoteID),
		zap.String("origin", result.Origin),
		zap.String("destination", result.Destination),
		zap.String("move_type", string(result.Breakdown.MoveType)),
		zap.String("total", result.TotalShouldCost.String()),
		zap.Bool("applied_minimum", result.Breakdown.AppliedMinimumCharge),
		zap.Duration("elapsed", elapsed),
	}
	if !req.CustomRates.IsEmpty() {
		fields = append(fields, zap.Strings("overrides", req.CustomRates.Keys()))
	}
	p.logger.Debug("quote priced", fields...)
	return result, nil
}
