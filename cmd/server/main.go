package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/api"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/cache"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/config"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/forecast"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/repository"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/repository/postgres"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/service"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	var repo repository.ResultRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		repo = postgres.NewResultRepository(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = repo.EnsureSchema(ctx)
		cancel()
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to prepare database schema")
		}
	}

	resultCache, err := cache.NewResultCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Result cache unavailable, continuing without it")
		resultCache = cache.NewNoopResultCache()
	}

	forecaster, err := forecast.New(cfg.Optimizer.Forecaster)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid forecaster")
	}

	engine := optimizer.New(cfg.OptimizerConfig())
	optimizationService := service.NewOptimizationService(engine, forecaster, cfg.Optimizer.ForecastHorizon, resultCache, repo)

	router := api.NewRouter(&api.Services{OptimizationService: optimizationService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Bool("persistence", optimizationService.PersistenceEnabled()).
			Bool("cache", cfg.Cache.Enabled).
			Str("forecaster", forecaster.Name()).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// in-flight batches get a few seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
