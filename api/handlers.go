package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"word-memory-server/config"
	"word-memory-server/matcherrors"
	"word-memory-server/score"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Handler holds dependencies for API handlers.
type Handler struct {
	Config *config.Config
	Ledger score.Ledger
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, ledger score.Ledger) *Handler {
	return &Handler{
		Config: cfg,
		Ledger: ledger,
	}
}

// RegisterRoutes mounts the read-only API under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(corsMiddleware)
		r.Get("/highscores", h.Highscores)
		r.Get("/difficulties", h.Difficulties)
	})
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CORS(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HighscoreEntry is one ranked row of /api/highscores.
type HighscoreEntry struct {
	Rank      int     `json:"rank"`
	GameID    string  `json:"game_id"`
	UserName  string  `json:"user_name"`
	Moves     int     `json:"moves"`
	Time      float64 `json:"time"`
	Timestamp string  `json:"timestamp"`
	Seed      int64   `json:"seed"`
}

// HighscoresResponse is the JSON structure for /api/highscores.
type HighscoresResponse struct {
	Difficulty string           `json:"difficulty"`
	Entries    []HighscoreEntry `json:"entries"`
}

// Highscores returns the ranked finished games of one difficulty.
// Query: difficulty (required), limit (default 10, max 100).
func (h *Handler) Highscores(w http.ResponseWriter, r *http.Request) {
	difficulty := r.URL.Query().Get("difficulty")
	if difficulty == "" {
		http.Error(w, "difficulty is required", http.StatusBadRequest)
		return
	}
	if _, err := h.Config.BoardSize(difficulty); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLimit)
	}

	ranked, err := h.Ledger.TopByDifficulty(r.Context(), difficulty, limit)
	if err != nil {
		if errors.Is(err, matcherrors.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("TopByDifficulty failed", "tag", "api", "err", err)
		http.Error(w, "failed to load highscores", http.StatusInternalServerError)
		return
	}

	resp := HighscoresResponse{Difficulty: difficulty, Entries: make([]HighscoreEntry, 0, len(ranked))}
	for i, rec := range ranked {
		resp.Entries = append(resp.Entries, HighscoreEntry{
			Rank:      i + 1,
			GameID:    rec.GameID,
			UserName:  rec.UserName,
			Moves:     rec.Moves,
			Time:      rec.Time,
			Timestamp: rec.Timestamp,
			Seed:      rec.Seed,
		})
	}
	writeJSON(w, resp)
}

// DifficultyInfo describes one configured difficulty.
type DifficultyInfo struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Pairs int    `json:"pairs"`
}

// Difficulties lists the configured difficulties, smallest board first.
func (h *Handler) Difficulties(w http.ResponseWriter, r *http.Request) {
	tags := h.Config.DifficultyTags()
	out := make([]DifficultyInfo, 0, len(tags))
	for _, tag := range tags {
		size := h.Config.Difficulties[tag]
		out = append(out, DifficultyInfo{Name: tag, Size: size, Pairs: size * size / 2})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "tag", "api", "err", err)
	}
}
