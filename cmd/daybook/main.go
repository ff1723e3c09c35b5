package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/marruell/daybook/internal/chat"
	"github.com/marruell/daybook/internal/config"
	"github.com/marruell/daybook/internal/httpapi"
	"github.com/marruell/daybook/internal/journal"
	"github.com/marruell/daybook/internal/llm"
	"github.com/marruell/daybook/internal/observability"
	"github.com/marruell/daybook/internal/profile"
	"github.com/marruell/daybook/internal/prompts"
	"github.com/marruell/daybook/internal/retrieval"
	"github.com/marruell/daybook/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store := journal.NewStore(cfg.DataRoot)
	if _, err := store.RebuildIndex(); err != nil {
		log.Fatalf("index rebuild failed: %v", err)
	}
	if err := store.RebuildDerived(); err != nil {
		log.Fatalf("derived rebuild failed: %v", err)
	}

	set, err := prompts.Load(cfg.PromptDir)
	if err != nil {
		log.Fatalf("prompt templates load failed: %v", err)
	}

	var client llm.Client
	switch cfg.LLMMode {
	case "openai":
		client = llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		log.Printf("llm provider: openai (%s)", cfg.OpenAIModel)
	case "mock":
		client = llm.NewMockClient()
		log.Printf("llm provider: mock")
	case "auto":
		if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
			client = llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
			log.Printf("llm provider: openai (%s)", cfg.OpenAIModel)
		} else {
			client = llm.NewMockClient()
			log.Printf("llm provider: mock (no openai key)")
		}
	}

	selector := retrieval.NewSelector(client, store, set.FileRouter, metrics)
	builder := profile.NewBuilder(client, store, set.UserProfile, metrics)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	sessions := session.NewManager(
		func() *chat.Conversation {
			return chat.New(client, selector, store, set, metrics, cfg.GenerateTimeout)
		},
		func(_ *session.Session) {
			builder.RebuildAsync(runCtx)
		},
	)
	sessions.Default()
	metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ProfileRebuildCron, func() {
		builder.RebuildAsync(runCtx)
	}); err != nil {
		log.Fatalf("invalid APP_PROFILE_REBUILD_CRON: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	api := httpapi.New(cfg, sessions, store, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
