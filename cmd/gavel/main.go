package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoniostano/gavel/internal/config"
	"github.com/antoniostano/gavel/internal/court"
	"github.com/antoniostano/gavel/internal/debate"
	"github.com/antoniostano/gavel/internal/generation"
	"github.com/antoniostano/gavel/internal/httpapi"
	"github.com/antoniostano/gavel/internal/hub"
	"github.com/antoniostano/gavel/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	gen, err := generation.New(generation.Config{
		Mode:          cfg.GenerationProvider,
		OpenAIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
		HTTPURL:       cfg.GenerationHTTPURL,
		Timeout:       cfg.GenerationTimeout,
	})
	if err != nil {
		log.Fatalf("generation provider init failed: %v", err)
	}
	log.Printf("generation provider: %s", generation.Describe(gen))
	gen = generation.Instrument(gen, metrics)

	engine := debate.NewEngine(cfg.MaxRounds)
	broadcast := hub.New(metrics)

	registry := court.NewRegistry(cfg.SessionTTL, engine, gen, broadcast)
	broadcast.SetSessions(registry)
	registry.SetRemoveHook(func(s *court.Session) {
		broadcast.CloseSession(s.ID)
		metrics.SessionEvents.WithLabelValues("removed").Inc()
		metrics.ActiveSessions.Set(float64(registry.Count()))
	})

	api := httpapi.New(cfg, registry, broadcast, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	registry.StartSweeper(runCtx, cfg.SweepInterval)

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
