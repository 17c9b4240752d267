package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	apiforecast "construction_forecast/pkg/api/forecast"
	"construction_forecast/pkg/core/config"
	"construction_forecast/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	policy, err := config.Load("config/policy.yaml")
	if err != nil {
		logger.Fatal("invalid policy config", zap.Error(err))
	}

	ctx := context.Background()

	// Persistence is optional: without DATABASE_URL the engine still
	// serves forecasts, it just cannot save them.
	var repo *store.ForecastRepo
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := store.NewPool(ctx, dbURL)
		if err != nil {
			logger.Fatal("database init failed", zap.Error(err))
		}
		defer pool.Close()
		repo = store.NewForecastRepo(pool, logger)
	} else {
		logger.Warn("DATABASE_URL not set, forecast persistence disabled")
	}

	var cache *store.ResultCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cache = store.NewResultCache(addr, policy.CacheTTL())
		logger.Info("result cache enabled", zap.String("addr", addr))
	}

	h := apiforecast.NewHandler(policy, repo, cache, logger)
	http.HandleFunc("/api/forecast/generate", h.HandleGenerate)
	http.HandleFunc("/api/forecast/compare", h.HandleCompare)
	http.HandleFunc("/api/forecast/load", h.HandleLoad)

	logger.Info("API server starting", zap.String("port", policy.ServerPort))
	if err := http.ListenAndServe(policy.ServerPort, nil); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
