// Package api provides the read-only HTTP API for observing a running
// facility: status, market quotes, agent ledgers, and a live event stream.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/soupworks/lettermarket/internal/feed"
	"github.com/soupworks/lettermarket/internal/persistence"
	"github.com/soupworks/lettermarket/internal/sim"
)

// Server serves the facility state over HTTP.
type Server struct {
	Sim   *sim.Simulation
	Bus   *feed.Bus
	DB    *persistence.DB
	RunID string
	Port  int
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// The history endpoints hit the database per request; each gets its
	// own budget so polling one cannot exhaust the other.
	exchangeLimiter := NewRateLimiter(120, time.Minute)
	statsLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/markets", s.handleMarkets)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/words", s.handleWords)
	mux.HandleFunc("/api/v1/exchanges", RateLimitMiddleware(exchangeLimiter, s.handleExchanges))
	mux.HandleFunc("/api/v1/stats/history", RateLimitMiddleware(statsLimiter, s.handleStatsHistory))

	if s.Bus != nil {
		mux.HandleFunc("/api/v1/stream", feed.Handler(s.Bus))
	}

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CORS_ORIGINS to a comma-separated list of extra allowed origins;
// localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Sim.Stats()
	writeJSON(w, map[string]any{
		"name":            "lettermarket",
		"run_id":          s.RunID,
		"time":            stats.Time,
		"completed_words": stats.CompletedWords,
		"total_profit":    stats.TotalProfit,
		"word_stations":   len(s.Sim.Dir.WordStations),
		"letter_stations": len(s.Sim.Dir.LetterStations),
		"buckets":         len(s.Sim.Dir.Buckets),
		"bucketbots":      len(s.Sim.Dir.Bots),
	})
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.MarketSummaries())
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")

	profits := s.Sim.Profits()
	if kind != "" {
		var filtered []sim.AgentProfit
		for _, p := range profits {
			if p.Kind == kind {
				filtered = append(filtered, p)
			}
		}
		profits = filtered
	}
	writeJSON(w, profits)
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	open, completed := s.Sim.OpenWords()
	writeJSON(w, map[string]any{
		"open":      open,
		"completed": completed,
	})
}

func (s *Server) handleExchanges(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := queryLimit(r, 50, 500)
	rows, err := s.DB.RecentExchanges(s.RunID, limit)
	if err != nil {
		slog.Error("exchange query failed", "error", err)
		writeJSON(w, []persistence.ExchangeRow{})
		return
	}
	if rows == nil {
		rows = []persistence.ExchangeRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := queryLimit(r, 100, 1000)
	rows, err := s.DB.StatsHistory(s.RunID, limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		writeJSON(w, []persistence.StatsRow{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	writeJSON(w, rows)
}

func queryLimit(r *http.Request, def, max int) int {
	limit := def
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= max {
			limit = n
		}
	}
	return limit
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
