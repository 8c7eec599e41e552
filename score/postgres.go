package score

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"word-memory-server/matcherrors"
	"word-memory-server/metrics"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS score_records (
	seq         BIGSERIAL PRIMARY KEY,
	game_id     TEXT NOT NULL UNIQUE,
	user_name   TEXT NOT NULL,
	moves       INT NOT NULL CHECK (moves >= 0),
	time        DOUBLE PRECISION NOT NULL CHECK (time > 0),
	difficulty  TEXT NOT NULL,
	finished    BOOLEAN NOT NULL,
	timestamp   TEXT NOT NULL,
	seed        BIGINT NOT NULL,
	inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_score_records_rank ON score_records(difficulty, finished, moves, time);
`

const selectColumns = `game_id, user_name, moves, time, difficulty, finished, timestamp, seed`

// PostgresLedger stores records in the score_records table. seq keeps append order
// so ties rank the same way as in the file ledger.
type PostgresLedger struct {
	pool         *pgxpool.Pool
	difficulties map[string]int
}

// NewPostgresLedger connects to Postgres and ensures the score_records table exists.
// If databaseURL is empty it returns (nil, nil); callers fall back to the file ledger.
func NewPostgresLedger(ctx context.Context, databaseURL string, difficulties map[string]int) (*PostgresLedger, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "score")
	return &PostgresLedger{pool: pool, difficulties: difficulties}, nil
}

// Close closes the connection pool.
func (l *PostgresLedger) Close() {
	if l != nil && l.pool != nil {
		l.pool.Close()
	}
}

// Load returns every record in append order.
func (l *PostgresLedger) Load(ctx context.Context) ([]Record, error) {
	if l == nil || l.pool == nil {
		return []Record{}, nil
	}
	return l.query(ctx, `SELECT `+selectColumns+` FROM score_records ORDER BY seq`)
}

// Append validates rec and inserts it. A duplicate game id is a validation error.
func (l *PostgresLedger) Append(ctx context.Context, rec Record) (err error) {
	if l == nil || l.pool == nil {
		return nil
	}
	defer func() { metrics.ScoreAppends.WithLabelValues("postgres", metrics.AppendResult(err)).Inc() }()

	if err := Validate(rec, l.difficulties); err != nil {
		return err
	}
	tag, err := l.pool.Exec(ctx, `
		INSERT INTO score_records (game_id, user_name, moves, time, difficulty, finished, timestamp, seed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (game_id) DO NOTHING`,
		rec.GameID, rec.UserName, rec.Moves, rec.Time, rec.Difficulty, rec.Finished, rec.Timestamp, rec.Seed)
	if err != nil {
		slog.Error("score insert failed", "tag", "score", "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: duplicate game_id %q", matcherrors.ErrValidation, rec.GameID)
	}
	return nil
}

// TopByDifficulty ranks the finished records of difficulty in SQL.
func (l *PostgresLedger) TopByDifficulty(ctx context.Context, difficulty string, limit int) ([]Record, error) {
	if l == nil || l.pool == nil {
		return []Record{}, nil
	}
	if _, ok := l.difficulties[difficulty]; !ok {
		return nil, fmt.Errorf("%w: unknown difficulty %q", matcherrors.ErrValidation, difficulty)
	}
	q := `SELECT ` + selectColumns + ` FROM score_records
		WHERE difficulty = $1 AND finished
		ORDER BY moves, time, seq`
	if limit > 0 {
		return l.query(ctx, q+` LIMIT $2`, difficulty, limit)
	}
	return l.query(ctx, q, difficulty)
}

func (l *PostgresLedger) query(ctx context.Context, sql string, args ...any) ([]Record, error) {
	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.GameID, &r.UserName, &r.Moves, &r.Time, &r.Difficulty, &r.Finished, &r.Timestamp, &r.Seed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
