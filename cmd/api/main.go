package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"auction-analytics/internal/analysis"
	"auction-analytics/internal/api"
	"auction-analytics/internal/config"
	"auction-analytics/internal/logging"
	"auction-analytics/internal/metrics"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid server configuration")
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatal().Err(err).Msg("Invalid logging configuration")
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Workers:        cfg.Workers,
		StaticDir:      cfg.StaticDir,
		Cache:          analysis.NewSolverCache(),
		Metrics:        metrics.New(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Int("workers", cfg.Workers).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
