package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"scamp/internal/api"
	"scamp/internal/api/handlers"
	"scamp/internal/config"
	"scamp/internal/domain/patterns"
	"scamp/internal/domain/services"
	"scamp/internal/domain/services/ai"
	"scamp/internal/infrastructure/cache"
	"scamp/internal/infrastructure/database"
	"scamp/internal/infrastructure/database/repository"
	"scamp/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("SCAMP_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting scamp")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Infrastructure. Both stores are optional: without Postgres nothing is
	// durable, without Redis nothing is cached or rate limited.
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
		db = nil
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		redisCache = nil
	}
	defer func() {
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Repositories: Postgres when available, in-memory otherwise.
	var (
		patternRepo  patterns.Repository
		analysisRepo services.AnalysisRepository
		feedbackRepo services.FeedbackRepository
		dbPing       func(ctx context.Context) error
	)
	if db != nil {
		patternRepo = repository.NewPatternRepository(db)
		analysisRepo = repository.NewAnalysisRepository(db)
		feedbackRepo = repository.NewFeedbackRepository(db)
		dbPing = db.Ping
		log.Info().Msg("repositories initialized with database")
	} else {
		mem := repository.NewMemory()
		analysisRepo = mem
		feedbackRepo = mem
		log.Warn().Msg("running without database, analyses and learned weights will not survive restart")
	}

	// Pattern store.
	bounds := patterns.Bounds{Min: cfg.Adaptation.MinWeight, Max: cfg.Adaptation.MaxWeight}
	store, err := patterns.NewStore(ctx, patternRepo, bounds, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pattern store")
	}

	// Explanation synthesis, optionally backed by a hosted model.
	var completer services.Completer
	if cfg.LLM.Enabled {
		completer = ai.NewLLMClient(ai.LLMConfig{
			Provider:     cfg.LLM.Provider,
			ClaudeAPIKey: cfg.LLM.ClaudeAPIKey,
			OpenAIAPIKey: cfg.LLM.OpenAIAPIKey,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
			Timeout:      cfg.LLM.Timeout,
		}, log)
		log.Info().Str("provider", cfg.LLM.Provider).Msg("LLM explanations enabled")
	} else {
		log.Info().Msg("LLM explanations disabled, using templates")
	}
	explainer := services.NewExplainer(completer, services.ExplainerConfig{
		TopSignals: cfg.Analysis.TopSignals,
		Timeout:    cfg.Analysis.ExplainTimeout,
	}, log)

	// Pipeline services.
	stats := services.NewStats()

	var svcCache services.Cache
	if redisCache != nil {
		svcCache = redisCache
	}

	analyzer := services.NewAnalyzer(store, explainer, analysisRepo, svcCache, services.AnalyzerConfig{
		MaxTextLength:  cfg.Analysis.MaxTextLength,
		RequestTimeout: cfg.Analysis.RequestTimeout,
		ResultCacheTTL: cfg.Analysis.ResultCacheTTL,
	}, stats, log)

	adaptation := services.NewAdaptation(store, analysisRepo, feedbackRepo, svcCache, services.AdaptationConfig{
		StepFraction: cfg.Adaptation.StepFraction,
	}, stats, log)

	h := handlers.NewHandlers(handlers.Dependencies{
		Analyzer:   analyzer,
		Adaptation: adaptation,
		Store:      store,
		Stats:      stats,
		Cache:      redisCache,
		DBPing:     dbPing,
		Logger:     log,
		Version:    cfg.App.Version,
	})

	router := api.NewRouter(*cfg, h, redisCache, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
