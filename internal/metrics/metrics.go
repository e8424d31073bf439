// Package metrics holds the Prometheus collectors for quotes, bulk batches,
// distance lookups, rate table reloads and HTTP traffic.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"move-cost/core/types"
)

// Namespace prefixes every collector
const Namespace = "movecost"

// Metrics groups the service collectors
type Metrics struct {
	QuotesTotal   *prometheus.CounterVec
	QuoteDuration *prometheus.HistogramVec
	QuoteTotalUSD prometheus.Histogram

	BulkRowsTotal   *prometheus.CounterVec
	DistanceLookups *prometheus.CounterVec
	RateTableReload *prometheus.CounterVec

	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// New creates and registers the collectors. A nil registerer uses the
// default registry; collectors already registered are reused.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		QuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "quotes_total",
			Help:      "Count of pricing calls by result and move type.",
		}, []string{"result", "move_type"}),
		QuoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "quote_duration_ms",
			Help:      "Pricing pipeline latency in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),
		QuoteTotalUSD: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "quote_total_usd",
			Help:      "Distribution of total should cost per priced move.",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000},
		}),
		BulkRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bulk_rows_total",
			Help:      "Count of bulk upload rows by outcome.",
		}, []string{"status"}),
		DistanceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "distance_lookups_total",
			Help:      "Count of distance lookups by source and result.",
		}, []string{"source", "result"}),
		RateTableReload: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rate_table_reloads_total",
			Help:      "Count of rate table reload attempts by result.",
		}, []string{"result"}),
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}

	register(reg, m.QuotesTotal, func(c prometheus.Collector) { m.QuotesTotal = c.(*prometheus.CounterVec) })
	register(reg, m.QuoteDuration, func(c prometheus.Collector) { m.QuoteDuration = c.(*prometheus.HistogramVec) })
	register(reg, m.QuoteTotalUSD, func(c prometheus.Collector) { m.QuoteTotalUSD = c.(prometheus.Histogram) })
	register(reg, m.BulkRowsTotal, func(c prometheus.Collector) { m.BulkRowsTotal = c.(*prometheus.CounterVec) })
	register(reg, m.DistanceLookups, func(c prometheus.Collector) { m.DistanceLookups = c.(*prometheus.CounterVec) })
	register(reg, m.RateTableReload, func(c prometheus.Collector) { m.RateTableReload = c.(*prometheus.CounterVec) })
	register(reg, m.ReqTotal, func(c prometheus.Collector) { m.ReqTotal = c.(*prometheus.CounterVec) })
	register(reg, m.ReqDur, func(c prometheus.Collector) { m.ReqDur = c.(*prometheus.HistogramVec) })
	register(reg, m.InFlight, func(c prometheus.Collector) { m.InFlight = c.(prometheus.Gauge) })
	return m
}

func register(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			reuse(are.ExistingCollector)
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}

// Result labels
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ObserveQuote records one pricing call. Its signature matches the
// pricing pipeline observer.
func (m *Metrics) ObserveQuote(result *types.CostBreakdown, err error, elapsed time.Duration) {
	if err != nil || result == nil {
		m.QuotesTotal.WithLabelValues(ResultError, "").Inc()
		m.QuoteDuration.WithLabelValues(ResultError).Observe(DurationMillis(elapsed))
		return
	}
	m.QuotesTotal.WithLabelValues(ResultOK, string(result.Breakdown.MoveType)).Inc()
	m.QuoteDuration.WithLabelValues(ResultOK).Observe(DurationMillis(elapsed))
	m.QuoteTotalUSD.Observe(result.TotalShouldCost.Float64())
}

// ObserveBulkRow records one bulk row outcome
func (m *Metrics) ObserveBulkRow(status string) {
	m.BulkRowsTotal.WithLabelValues(status).Inc()
}

// ObserveDistance records a distance lookup
func (m *Metrics) ObserveDistance(source string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.DistanceLookups.WithLabelValues(source, result).Inc()
}

// ObserveReload records a rate table reload attempt
func (m *Metrics) ObserveReload(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.RateTableReload.WithLabelValues(result).Inc()
}

// DurationMillis converts a duration to milliseconds for metric observation
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
