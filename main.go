package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/wheelbook/backend/src/config"
	"github.com/username/wheelbook/backend/src/database"
	"github.com/username/wheelbook/backend/src/handlers"
	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/processors"
	"github.com/username/wheelbook/backend/src/services"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Wheelbook backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations()

	reportCache := cache.New(config.Cfg.ReportCacheTTL, services.CacheCleanupInterval)
	store := database.NewTransactionStore(database.DB)

	chainProcessor := processors.NewChainProcessor(processors.ChainOptions{
		SoldOptionPolicy: processors.SoldOptionPolicy(config.Cfg.OptionSoldPolicy),
		RollWindowDays:   &config.Cfg.RollWindowDays,
	})
	premiumProcessor := processors.NewPremiumProcessor(config.Cfg.PremiumWorkers)

	chainService := services.NewChainService(store, chainProcessor, reportCache)
	premiumService := services.NewPremiumService(store, premiumProcessor, reportCache)
	transactionService := services.NewTransactionService(store, premiumService)

	chainHandler := handlers.NewChainHandler(chainService)
	premiumHandler := handlers.NewPremiumHandler(premiumService)
	txHandler := handlers.NewTransactionHandler(transactionService)

	limiter := rate.NewLimiter(rate.Limit(config.Cfg.RateLimitRPS), config.Cfg.RateLimitBurst)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(handlers.RateLimitMiddleware(limiter))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Wheelbook Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chains/rebuild", chainHandler.HandleRebuildChains)
		r.Get("/chains/stats", chainHandler.HandleGetChainStatistics)
		r.Get("/premium/summary", premiumHandler.HandleGetPremiumSummary)
		r.Post("/transactions", txHandler.HandleAddTransactions)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
