package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studychess/studychess/internal/analysis"
	"github.com/studychess/studychess/internal/api"
	"github.com/studychess/studychess/internal/config"
	"github.com/studychess/studychess/internal/gamedb"
	"github.com/studychess/studychess/internal/rules"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := gamedb.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("open game database", "error", err)
		os.Exit(1)
	}

	factories := map[string]analysis.ProcFactory{}
	for id, path := range cfg.Engines {
		factories[id] = analysis.Exec(path)
	}

	orch := analysis.New(analysis.Options{
		Depth:       cfg.SearchDepth,
		MultiPV:     cfg.MultiPV,
		MaxSessions: cfg.MaxEngineSessions,
		EventBuffer: cfg.EventBuffer,
	}, factories, log)

	srv := api.NewServer(orch, store, rules.Std{}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Close()
		store.Close()
	}()

	log.Info("starting studychess", "port", cfg.Port, "engines", len(cfg.Engines))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
