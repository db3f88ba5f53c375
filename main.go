package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/agent"
	"github.com/balitek/villabot/internal/bot"
	"github.com/balitek/villabot/internal/commit"
	"github.com/balitek/villabot/internal/config"
	"github.com/balitek/villabot/internal/enrich"
	"github.com/balitek/villabot/internal/httpapi"
	"github.com/balitek/villabot/internal/llm"
	_ "github.com/balitek/villabot/internal/metrics" // register collectors
	"github.com/balitek/villabot/internal/proposal"
	"github.com/balitek/villabot/internal/reviews"
	"github.com/balitek/villabot/internal/search"
	"github.com/balitek/villabot/internal/store"
	"github.com/balitek/villabot/internal/tracing"
)

func main() {
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := tracing.Initialize(cfg.Tracing, logger); err != nil {
		logger.Warn("Tracing initialization failed, continuing without it", zap.Error(err))
	}

	dataStore, err := store.NewSQLStore(cfg.Store, cfg.Dataset.Partitions, logger)
	if err != nil {
		logger.Fatal("Failed to open dataset store", zap.Error(err))
	}
	defer dataStore.Close()

	if err := dataStore.EnsureHeaders(context.Background(), cfg.Dataset.Headers); err != nil {
		logger.Fatal("Failed to seed dataset headers", zap.Error(err))
	}

	proposals, closeProposals, err := newProposalStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize proposal store", zap.Error(err))
	}
	defer closeProposals()

	llmClient := llm.NewHTTPClient(cfg.LLM, logger)
	gateway := search.NewSerpClient(cfg.Search, logger)
	summarizer := reviews.NewSummarizer(llmClient, logger)

	router := bot.NewRouter(bot.Deps{
		Store:      dataStore,
		Proposals:  proposals,
		Enricher:   enrich.NewEngine(gateway, summarizer, cfg.Dataset.Region, logger),
		Committer:  commit.NewService(dataStore, logger),
		Agent:      agent.New(llmClient, gateway, cfg.Agent.MaxTurns, logger),
		Gateway:    gateway,
		Summarizer: summarizer,
		Region:     cfg.Dataset.Region,
		Logger:     logger,
	})

	mux := http.NewServeMux()
	httpapi.NewChatHandler(router, logger).Register(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("villabot listening", zap.Int("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.GracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("VILLABOT_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newProposalStore picks the Redis store when an address is configured,
// in-memory otherwise.
func newProposalStore(cfg *config.Config, logger *zap.Logger) (proposal.Store, func(), error) {
	if cfg.Redis.Addr != "" {
		s, err := proposal.NewRedisStore(cfg.Redis, cfg.Proposal.TTL, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using Redis proposal store", zap.String("addr", cfg.Redis.Addr))
		return s, func() { s.Close() }, nil
	}
	s := proposal.NewMemoryStore(cfg.Proposal.TTL, logger)
	return s, func() { s.Close() }, nil
}
