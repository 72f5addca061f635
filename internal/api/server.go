// Package api serves the spectator HTTP surface: live race snapshots,
// the cumulative leaderboard, and JWT-guarded race control.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/capesail/vendeeglobe/internal/platform/timeouts"
	"github.com/capesail/vendeeglobe/internal/race"
	"github.com/capesail/vendeeglobe/internal/scores"
)

// RaceControl is the slice of the engine the API needs.
type RaceControl interface {
	Snapshot() *race.Snapshot
	Pause()
	Resume()
	Stop()
}

// ScoreReader reads the persisted leaderboard. It may be nil when the
// race runs without a store.
type ScoreReader interface {
	Leaderboard(ctx context.Context, limit int) ([]scores.TeamScore, error)
	FastestFinishes(ctx context.Context, limit int) ([]scores.FastestTime, error)
}

// Config tunes the HTTP server.
type Config struct {
	Addr string
	// JWTSecret signs race-control tokens. Empty disables the control
	// endpoints entirely.
	JWTSecret string
	// AllowedOrigins for browser spectators. Empty allows any origin.
	AllowedOrigins []string
}

// Server exposes one race over HTTP.
type Server struct {
	control    RaceControl
	store      ScoreReader
	httpAddr   string
	httpServer *http.Server
}

// New builds the spectator server for a running race.
func New(control RaceControl, store ScoreReader, cfg Config) (*Server, error) {
	if control == nil {
		return nil, errors.New("race control is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		control:  control,
		store:    store,
		httpAddr: cfg.Addr,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router(cfg),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return s, nil
}

func (s *Server) router(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/race", s.handleRace)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/fastest", s.handleFastest)

		if cfg.JWTSecret != "" {
			r.Route("/control", func(r chi.Router) {
				r.Use(authMiddleware([]byte(cfg.JWTSecret)))
				r.Post("/pause", s.handlePause)
				r.Post("/resume", s.handleResume)
				r.Post("/stop", s.handleStop)
			})
		}
	})
	return r
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	log.Printf("spectator api listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRace(w http.ResponseWriter, r *http.Request) {
	snap := s.control.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "race has not started")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no leaderboard store configured")
		return
	}
	board, err := s.store.Leaderboard(r.Context(), limitParam(r))
	if err != nil {
		log.Printf("read leaderboard: %v", err)
		writeError(w, http.StatusInternalServerError, "read leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Teams: teamScoreRows(board)})
}

func (s *Server) handleFastest(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no leaderboard store configured")
		return
	}
	limit := limitParam(r)
	if limit == 0 {
		limit = 3 // a podium by default
	}
	podium, err := s.store.FastestFinishes(r.Context(), limit)
	if err != nil {
		log.Printf("read fastest finishes: %v", err)
		writeError(w, http.StatusInternalServerError, "read fastest finishes")
		return
	}
	writeJSON(w, http.StatusOK, fastestResponse{Finishes: fastestRows(podium)})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.control.Pause()
	logControl(r, "paused")
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.control.Resume()
	logControl(r, "resumed")
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.control.Stop()
	logControl(r, "stopped")
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func logControl(r *http.Request, action string) {
	principal, _ := PrincipalFromContext(r.Context())
	log.Printf("race %s by %s", action, principal)
}

type leaderboardResponse struct {
	Teams []teamScoreRow `json:"teams"`
}

type teamScoreRow struct {
	Team        string  `json:"team"`
	Points      float64 `json:"points"`
	RacesPlayed int     `json:"races_played"`
}

func teamScoreRows(board []scores.TeamScore) []teamScoreRow {
	out := make([]teamScoreRow, 0, len(board))
	for _, row := range board {
		out = append(out, teamScoreRow{Team: row.Team, Points: row.Points, RacesPlayed: row.RacesPlayed})
	}
	return out
}

type fastestResponse struct {
	Finishes []fastestRow `json:"finishes"`
}

type fastestRow struct {
	Team    string  `json:"team"`
	Seconds float64 `json:"seconds"`
}

func fastestRows(podium []scores.FastestTime) []fastestRow {
	out := make([]fastestRow, 0, len(podium))
	for _, row := range podium {
		out = append(out, fastestRow{Team: row.Team, Seconds: row.Seconds})
	}
	return out
}

func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"code": status, "message": message})
}
