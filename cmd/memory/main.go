// Command memory plays the word memory game in a terminal, sharing the server's
// configuration, word list and score ledger.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"word-memory-server/cli"
	"word-memory-server/config"
	"word-memory-server/loghandler"
	"word-memory-server/score"
	"word-memory-server/words"
)

func main() {
	var level slog.LevelVar
	level.Set(slog.LevelWarn)
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, &level)))

	_ = godotenv.Load()

	cfg := config.Load()
	if os.Getenv("LOG_LEVEL") != "" {
		level.Set(loghandler.ParseLevel(cfg.LogLevel))
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "tag", "cli", "err", err)
		os.Exit(1)
	}

	pool, err := words.Open(cfg.WordsFile)
	if err != nil {
		slog.Error("cannot load word list", "tag", "cli", "path", cfg.WordsFile, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var ledger score.Ledger = score.NewFileLedger(cfg.ScorePath(), cfg.Difficulties)
	pg, err := score.NewPostgresLedger(ctx, cfg.DatabaseURL, cfg.Difficulties)
	if err != nil {
		slog.Warn("Postgres unavailable, using score file", "tag", "cli", "err", err)
	} else if pg != nil {
		defer pg.Close()
		ledger = pg
	}

	if err := cli.New(cfg, pool, ledger, os.Stdin, os.Stdout).Run(ctx); err != nil {
		slog.Error("game aborted", "tag", "cli", "err", err)
		os.Exit(1)
	}
}
