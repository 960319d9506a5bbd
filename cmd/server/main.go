package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/researchmate/internal/api"
	"github.com/dgallion1/researchmate/internal/config"
	"github.com/dgallion1/researchmate/internal/llm"
	"github.com/dgallion1/researchmate/internal/orchestrator"
	"github.com/dgallion1/researchmate/internal/parser"
	"github.com/dgallion1/researchmate/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load("")
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the LLM backend.
	backend, err := llm.New(ctx, cfg.LLM())
	if err != nil {
		log.Error("create llm backend", "error", err)
		os.Exit(1)
	}
	stats := llm.NewStats(cfg.StatsWindow)
	orch := orchestrator.New(backend, stats, orchestrator.Options{
		PromptsDir: cfg.PromptsDir,
		Timeout:    cfg.LLMTimeout,
	}, log)

	ext := parser.NewExtractor(parser.Options{
		Validate:          cfg.PDFValidate,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	}, log)

	// Sessions expire after SESSION_TTL of inactivity.
	store := session.NewStore(cfg.SessionTTL)
	go store.Run(ctx, time.Minute, log)

	srv := api.NewServer(store, ext, orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		backend.Close()
	}()

	log.Info("starting researchmate", "port", cfg.Port, "model", backend.Model())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
