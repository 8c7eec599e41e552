package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"word-memory-server/api"
	"word-memory-server/auth"
	"word-memory-server/config"
	"word-memory-server/loghandler"
	"word-memory-server/score"
	"word-memory-server/words"
	"word-memory-server/ws"
)

func main() {
	var level slog.LevelVar
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, &level)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	cfg := config.Load()
	level.Set(loghandler.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "tag", "main", "err", err)
		os.Exit(1)
	}

	pool, err := words.Open(cfg.WordsFile)
	if err != nil {
		slog.Error("cannot load word list", "tag", "main", "path", cfg.WordsFile, "err", err)
		os.Exit(1)
	}
	slog.Info("word list loaded", "tag", "main", "words", pool.Len(), "source", cmp.Or(cfg.WordsFile, "embedded"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		slog.Error("cannot open score ledger", "tag", "main", "err", err)
		os.Exit(1)
	}
	defer closeLedger()

	var verifier ws.TokenVerifier
	if cfg.AuthBaseURL == "" {
		slog.Info("NEON_AUTH_BASE_URL is not set; auth messages will be rejected", "tag", "auth")
	} else if v, err := auth.NewVerifier(cfg.AuthBaseURL); err != nil {
		slog.Warn("auth disabled", "tag", "auth", "err", err)
	} else {
		verifier = v
		slog.Info("auth configured", "tag", "auth", "base_url", cfg.AuthBaseURL)
	}

	slog.Info("configuration", "tag", "main",
		"difficulties", cfg.DifficultyTags(), "reveal_ms", cfg.RevealDurationMS,
		"auto_resolve", cfg.AutoResolve, "port", cfg.HTTPPort)

	hub := ws.NewHub(cfg, pool, ledger, verifier)
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newRouter(cfg, hub, ledger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("word memory server listening", "tag", "main", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "tag", "main", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown", "tag", "main", "err", err)
	}
}

// openLedger uses Postgres when DATABASE_URL is set and the JSON file otherwise.
func openLedger(ctx context.Context, cfg *config.Config) (score.Ledger, func(), error) {
	pg, err := score.NewPostgresLedger(ctx, cfg.DatabaseURL, cfg.Difficulties)
	if err != nil {
		return nil, nil, err
	}
	if pg != nil {
		return pg, pg.Close, nil
	}
	slog.Info("using file score ledger", "tag", "score", "path", cfg.ScorePath())
	return score.NewFileLedger(cfg.ScorePath(), cfg.Difficulties), func() {}, nil
}

func newRouter(cfg *config.Config, hub *ws.Hub, ledger score.Ledger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", hub.ServeWS)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	api.NewHandler(cfg, ledger).RegisterRoutes(r)
	return r
}

