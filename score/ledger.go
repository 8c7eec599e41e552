// Package score keeps the append-only ledger of finished and abandoned sessions
// and ranks it per difficulty.
package score

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"word-memory-server/matcherrors"
	"word-memory-server/metrics"
)

// Ledger abstracts score persistence so the file store and the Postgres store can
// be swapped (and faked in tests).
type Ledger interface {
	Load(ctx context.Context) ([]Record, error)
	Append(ctx context.Context, rec Record) error
	// TopByDifficulty returns the finished records of difficulty ranked by
	// (moves, time). limit <= 0 returns all of them.
	TopByDifficulty(ctx context.Context, difficulty string, limit int) ([]Record, error)
}

var (
	_ Ledger = (*FileLedger)(nil)
	_ Ledger = (*PostgresLedger)(nil)
)

// FileLedger stores records as an indented JSON array in a single file. Appends
// rewrite the whole file through a temp file and a rename, so readers never see a
// partial write.
type FileLedger struct {
	path         string
	difficulties map[string]int

	mu     sync.Mutex
	rename func(oldpath, newpath string) error
}

// NewFileLedger returns a ledger backed by path. The file and its directory are
// created on the first Append.
func NewFileLedger(path string, difficulties map[string]int) *FileLedger {
	return &FileLedger{
		path:         path,
		difficulties: difficulties,
		rename:       os.Rename,
	}
}

// Path returns the backing file.
func (l *FileLedger) Path() string { return l.path }

// Load returns every record. A missing or blank file is an empty ledger; anything
// else that is not a JSON array of records is ErrCorruptStore.
func (l *FileLedger) Load(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", matcherrors.ErrCorruptStore, l.path, err)
	}
	if raw == nil {
		// "null"
		return nil, fmt.Errorf("%w: %s is not a list", matcherrors.ErrCorruptStore, l.path)
	}
	records := make([]Record, 0, len(raw))
	for i, elem := range raw {
		rec, err := decodeRecord(elem)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %v", matcherrors.ErrCorruptStore, l.path, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// storedKeys must be present in every stored record.
var storedKeys = []string{"game_id", "moves", "time", "difficulty", "finished"}

func decodeRecord(data json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Record{}, err
	}
	if fields == nil {
		return Record{}, errors.New("not a record")
	}
	for _, k := range storedKeys {
		if v, ok := fields[k]; !ok || string(bytes.TrimSpace(v)) == "null" {
			return Record{}, fmt.Errorf("missing %s", k)
		}
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Append validates rec and adds it to the end of the ledger.
func (l *FileLedger) Append(ctx context.Context, rec Record) (err error) {
	defer func() { metrics.ScoreAppends.WithLabelValues("file", metrics.AppendResult(err)).Inc() }()

	if err := Validate(rec, l.difficulties); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.Load(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)

	if err := l.writeAtomic(records); err != nil {
		slog.Error("score append failed", "tag", "score", "path", l.path, "err", err)
		return err
	}
	slog.Debug("score appended", "tag", "score", "game_id", rec.GameID, "difficulty", rec.Difficulty)
	return nil
}

func (l *FileLedger) writeAtomic(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := l.rename(tmpName, l.path); err != nil {
		return err
	}
	committed = true
	return nil
}

// TopByDifficulty ranks the finished records of difficulty.
func (l *FileLedger) TopByDifficulty(ctx context.Context, difficulty string, limit int) ([]Record, error) {
	if _, ok := l.difficulties[difficulty]; !ok {
		return nil, fmt.Errorf("%w: unknown difficulty %q", matcherrors.ErrValidation, difficulty)
	}
	records, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(records, difficulty, limit), nil
}

// Rank filters records to finished games of difficulty and orders them by fewer
// moves, then lower time. Equal records keep their ledger order.
func Rank(records []Record, difficulty string, limit int) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Finished && r.Difficulty == difficulty {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		if c := cmp.Compare(a.Moves, b.Moves); c != 0 {
			return c
		}
		return cmp.Compare(a.Time, b.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Placement returns the 1-based position of gameID in ranked, or len(ranked)+1
// when it is not there.
func Placement(ranked []Record, gameID string) int {
	for i, r := range ranked {
		if r.GameID == gameID {
			return i + 1
		}
	}
	return len(ranked) + 1
}
