package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"move-cost/adapters/bulk"
	"move-cost/adapters/distance"
	"move-cost/core/pricing"
	"move-cost/core/ratetable"
	"move-cost/internal/metrics"
)

// Config holds the server's collaborators
type Config struct {
	Version  string
	Pipeline *pricing.Pipeline
	Store    *ratetable.Store
	Resolver distance.Resolver
	Bulk     *bulk.Processor
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	// MaxUploadBytes caps request bodies; zero means no cap
	MaxUploadBytes int64
}

// Server is the API server
type Server struct {
	engine   *gin.Engine
	version  string
	pipeline *pricing.Pipeline
	store    *ratetable.Store
	resolver distance.Resolver
	bulk     *bulk.Processor
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewServer creates the server and registers its routes
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		registry := prometheus.NewRegistry()
		cfg.Metrics = metrics.New(registry)
		cfg.Gatherer = registry
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Bulk == nil {
		cfg.Bulk = bulk.NewProcessor(cfg.Pipeline, bulk.WithResolver(cfg.Resolver), bulk.WithLogger(cfg.Logger))
	}

	s := &Server{
		engine:   gin.New(),
		version:  cfg.Version,
		pipeline: cfg.Pipeline,
		store:    cfg.Store,
		resolver: cfg.Resolver,
		bulk:     cfg.Bulk,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}

	s.engine.Use(RequestID(), AccessLog(cfg.Logger), Instrument(cfg.Metrics), gin.Recovery(), LimitBody(cfg.MaxUploadBytes))
	if cfg.MaxUploadBytes > 0 {
		s.engine.MaxMultipartMemory = cfg.MaxUploadBytes
	}
	s.registerRoutes(cfg.Gatherer)
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/calculate", s.handleCalculate)

		v1.POST("/bulk/validate", s.handleBulkValidate)
		v1.POST("/bulk/process", s.handleBulkProcess)
		v1.POST("/bulk/export", s.handleBulkExport)
		v1.GET("/bulk/template", s.handleBulkTemplate)

		v1.GET("/rate-table", s.handleRateTable)
		v1.POST("/rate-table/reload", s.handleRateTableReload)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}
