package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"word-memory-server/config"
	"word-memory-server/game"
	"word-memory-server/rng"
	"word-memory-server/score"
	"word-memory-server/words"
)

// recordingLedger keeps appended records in memory. When block is set, Append
// waits until the context expires.
type recordingLedger struct {
	mu      sync.Mutex
	records []score.Record
	block   bool
}

func (l *recordingLedger) Load(ctx context.Context) ([]score.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]score.Record(nil), l.records...), nil
}

func (l *recordingLedger) Append(ctx context.Context, rec score.Record) error {
	if l.block {
		<-ctx.Done()
		return ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *recordingLedger) TopByDifficulty(ctx context.Context, difficulty string, limit int) ([]score.Record, error) {
	return score.Rank(l.records, difficulty, limit), nil
}

func (l *recordingLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func newTestHub(ledger score.Ledger) *Hub {
	cfg := config.Defaults()
	cfg.Difficulties = map[string]int{"easy": 2}
	return NewHub(cfg, words.Default(), ledger, nil)
}

// startedClient returns a client whose session has one card face up.
func startedClient(t *testing.T, h *Hub) *Client {
	t.Helper()
	g, err := game.Setup(h.Config, "easy", h.Pool, rng.New(3))
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Flip(0, 0); err != nil {
		t.Fatal(err)
	}
	return &Client{
		Hub:     h,
		Send:    make(chan []byte, 256),
		session: &session{id: "s1", name: score.DefaultName, game: g},
	}
}

func TestAbandonRecordsStartedSession(t *testing.T) {
	ledger := &recordingLedger{}
	h := newTestHub(ledger)
	c := startedClient(t, h)

	c.abandon("disconnect")

	records, _ := ledger.Load(context.Background())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Finished || records[0].GameID != "s1" {
		t.Errorf("unexpected record %+v", records[0])
	}
	if c.session != nil {
		t.Error("expected the session to be dropped")
	}

	c.abandon("disconnect")
	if ledger.count() != 1 {
		t.Error("second abandon must not record again")
	}
}

func TestAbandonSkipsUnstartedSession(t *testing.T) {
	ledger := &recordingLedger{}
	h := newTestHub(ledger)
	g, err := game.Setup(h.Config, "easy", h.Pool, rng.New(3))
	if err != nil {
		t.Fatal(err)
	}
	c := &Client{Hub: h, Send: make(chan []byte, 1), session: &session{id: "s2", game: g}}

	c.abandon("restart")
	if ledger.count() != 0 {
		t.Error("a session without flips must not be recorded")
	}
}

func TestUnregisterDoesNotWaitForLedger(t *testing.T) {
	h := newTestHub(&recordingLedger{block: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := startedClient(t, h)
	h.Register <- c
	h.Unregister <- c

	select {
	case h.Register <- &Client{Hub: h, Send: make(chan []byte, 1)}:
	case <-time.After(time.Second):
		t.Fatal("hub blocked after unregister")
	}

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Error("expected no message before close")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}
