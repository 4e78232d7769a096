// Command soupsim runs the alphabet-soup facility: a market economy of
// buckets, bucketbots, and stations assembling words from letters.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/soupworks/lettermarket/internal/api"
	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/config"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/feed"
	"github.com/soupworks/lettermarket/internal/persistence"
	"github.com/soupworks/lettermarket/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (empty for defaults)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DB.Path), 0755)
	db, err := persistence.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	runID, err := db.BeginRun(cfg.Seed)
	if err != nil {
		slog.Error("failed to begin run", "error", err)
		os.Exit(1)
	}
	slog.Info("database opened", "path", cfg.DB.Path, "run", runID)

	// ── Facility ──────────────────────────────────────────────────────
	s, err := sim.New(cfg.Options())
	if err != nil {
		slog.Error("failed to build facility", "error", err)
		os.Exit(1)
	}

	// ── Live feed ─────────────────────────────────────────────────────
	bus := feed.NewBus()
	s.Economy.SetExchangeHook(func(kind economy.ExchangeKind, e auction.Exchange) {
		// Runs inside Step on the clock goroutine, so read the clock
		// directly rather than through the locking accessor.
		now := s.Clock.Now()
		bus.PublishExchange(now, kind, e)
		if err := db.SaveExchange(runID, now, kind, e); err != nil {
			slog.Error("exchange save failed", "error", err)
		}
	})

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Sim:   s,
		Bus:   bus,
		DB:    db,
		RunID: runID,
		Port:  cfg.HTTP.Port,
	}
	apiServer.Start()

	// ── Run ───────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	fmt.Printf("Facility running: %d buckets, %d bucketbots, %d stations. API: http://localhost:%d/api/v1/status\n",
		len(s.Dir.Buckets), len(s.Dir.Bots),
		len(s.Dir.WordStations)+len(s.Dir.LetterStations), cfg.HTTP.Port)

	const statsEvery = 10.0
	nextStats := statsEvery
	for s.Now() < cfg.RunUntil && ctx.Err() == nil {
		s.Step()
		if s.Now() >= nextStats {
			nextStats += statsEvery
			stats := s.Stats()
			bus.PublishStats(stats)
			if err := db.SaveStats(runID, stats); err != nil {
				slog.Error("stats save failed", "error", err)
			}
			slog.Info("progress",
				"time", fmt.Sprintf("%.1f", stats.Time),
				"completed_words", stats.CompletedWords,
				"total_profit", fmt.Sprintf("%.2f", stats.TotalProfit),
			)
		}
	}

	// ── Report ────────────────────────────────────────────────────────
	final := s.Stats()
	if err := db.FinishRun(runID, final, s.Profits()); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Printf("\nRun complete at t=%.1f: %d words assembled, net %.2f across the floor.\n",
		final.Time, final.CompletedWords, final.TotalProfit)
	for _, p := range s.Profits() {
		fmt.Printf("  %-20s #%-4d %10.2f\n", p.Kind, p.ID, p.Profit)
	}
}
