// Package main - Entry point for the move cost API server
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"move-cost/api"
	"move-cost/internal/app"
	"move-cost/internal/config"
	"move-cost/internal/logging"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("MOVECOST_CONFIG"), "config file (JSON)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("failed to load config", zap.Error(err))
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		logging.Fatal("failed to initialize logging", zap.Error(err))
	}
	defer logging.Sync()

	deps, err := app.Build(cfg, logging.Logger)
	if err != nil {
		logging.Fatal("failed to load rate table", zap.Error(err))
	}
	defer deps.Close()

	gin.SetMode(cfg.Server.GinMode)

	server := api.NewServer(api.Config{
		Version:        version,
		Pipeline:       deps.Pipeline,
		Store:          deps.Store,
		Resolver:       deps.Resolver,
		Bulk:           deps.Bulk,
		Metrics:        deps.Metrics,
		Gatherer:       deps.MetricsRegistry,
		Logger:         logging.Named("api"),
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Info("starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", version),
			zap.String("rate_table", deps.Store.Current().Source()),
			zap.String("resolver", deps.Resolver.Name()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("server forced to shutdown", zap.Error(err))
	}

	logging.Info("server exited")
}
