package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medintern-api/internal/config"
	"github.com/jwalitptl/medintern-api/internal/extract"
	"github.com/jwalitptl/medintern-api/internal/handler"
	backupHandler "github.com/jwalitptl/medintern-api/internal/handler/backup"
	caseHandler "github.com/jwalitptl/medintern-api/internal/handler/caserecord"
	extractionHandler "github.com/jwalitptl/medintern-api/internal/handler/extraction"
	formularyHandler "github.com/jwalitptl/medintern-api/internal/handler/formulary"
	pathologyHandler "github.com/jwalitptl/medintern-api/internal/handler/pathology"
	"github.com/jwalitptl/medintern-api/internal/repository/sqlite"
	"github.com/jwalitptl/medintern-api/internal/router"
	"github.com/jwalitptl/medintern-api/internal/service/caselog"
	"github.com/jwalitptl/medintern-api/pkg/logger"
	"github.com/jwalitptl/medintern-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("medintern")

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot store")
	}
	defer store.Close()

	caselogSvc := caselog.NewService(store, appMetrics, appLogger, cfg.Insights.CacheTTL())
	if err := caselogSvc.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load snapshot")
	}

	// Text recognition is provided by the device; the server side only
	// carries the parsing half of the boundary.
	extractSvc := extract.NewService(nil, extract.JSONDraftParser{}, extract.Config{
		Timeout:     cfg.Extraction.Timeout(),
		MaxFailures: cfg.Extraction.BreakerMaxFailures,
		ResetAfter:  cfg.Extraction.BreakerReset(),
	}, appMetrics, appLogger)

	r := router.NewRouter(
		handler.NewHandler(),
		router.Config{
			RateLimit: rate.Limit(cfg.Server.RateLimit),
			RateBurst: cfg.Server.RateBurst,
		},
		caseHandler.NewHandler(caselogSvc),
		formularyHandler.NewHandler(caselogSvc),
		pathologyHandler.NewHandler(caselogSvc),
		backupHandler.NewHandler(caselogSvc),
		extractionHandler.NewHandler(extractSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.Timeout(),
		WriteTimeout: cfg.Server.Timeout(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
