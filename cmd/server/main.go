package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/quantfolio/quantfolio/internal/advisor"
	"github.com/quantfolio/quantfolio/internal/api"
	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/database"
	"github.com/quantfolio/quantfolio/internal/logging"
	"github.com/quantfolio/quantfolio/internal/market"
	"github.com/quantfolio/quantfolio/internal/metrics"
	"github.com/quantfolio/quantfolio/internal/server"
)

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting quantfolio")

	db, err := database.Connect(context.Background(), cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	userRepo := database.NewUserRepository(db)
	portfolioRepo := database.NewPortfolioRepository(db)
	chatRepo := database.NewChatRepository(db)

	marketClient, err := market.NewClient(market.Config{
		BaseURL:           cfg.Market.BaseURL,
		Timeout:           cfg.Market.Timeout,
		Debug:             cfg.Market.Debug,
		CacheTTL:          cfg.Market.CacheTTL,
		TrendLookbackDays: cfg.Market.TrendLookbackDays,
	}, logger)
	if err != nil {
		logger.Error("failed to init market client", "error", err)
		os.Exit(1)
	}

	completer := advisor.NewOpenAICompleter(advisor.CompleterConfig{
		APIKey:          cfg.OpenAI.APIKey,
		Model:           cfg.OpenAI.Model,
		ClassifierModel: cfg.OpenAI.ClassifierModel,
		Temperature:     cfg.OpenAI.Temperature,
		MaxTokens:       cfg.OpenAI.MaxTokens,
		Timeout:         cfg.OpenAI.Timeout,
	}, logger)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	adv := advisor.New(advisor.Config{
		PriceWorkers: cfg.Market.LookupConcurrency,
		HistoryLimit: cfg.Chat.HistoryLimit,
	}, marketClient, completer, portfolioRepo, collector, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	handler := api.NewHandler(adv, userRepo, portfolioRepo, chatRepo, cfg.Chat.HistoryLimit, logger)
	api.SetupRoutes(mux, handler, db)

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("quantfolio started", "port", cfg.Server.Port)

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
