package game

import (
	"errors"
	"slices"
	"testing"
	"time"

	"word-memory-server/config"
	"word-memory-server/matcherrors"
	"word-memory-server/rng"
	"word-memory-server/words"
)

// fakeClock returns a clock that only moves when advanced.
func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

// newRiggedGame starts a game and then replaces the shuffled board with deck laid
// out row-major, so tests know where every word is.
func newRiggedGame(t *testing.T, size int, deck []string) *Game {
	t.Helper()
	g, err := New(size, "test", rng.New(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := g.Start(deck); err != nil {
		t.Fatalf("Start: %v", err)
	}
	g.board = newTestBoard(t, size, deck)
	return g
}

// sequentialDeck returns size*size/2 pairs where pair i sits at cells 2i and 2i+1.
func sequentialDeck(size int) []string {
	deck := make([]string, 0, size*size)
	for i := 0; i < size*size/2; i++ {
		w := string(rune('a'+i%26)) + string(rune('a'+i/26))
		deck = append(deck, w, w)
	}
	return deck
}

func pos(i, size int) (int, int) { return i / size, i % size }

func TestNewRejectsInvalidSize(t *testing.T) {
	if _, err := New(1, "x", rng.New(1)); !errors.Is(err, matcherrors.ErrInvalidBoardSize) {
		t.Errorf("expected ErrInvalidBoardSize, got %v", err)
	}
}

func TestStartDeckMismatchKeepsBoard(t *testing.T) {
	g := newRiggedGame(t, 2, []string{"a", "a", "b", "b"})
	before := g.Board()

	if err := g.Start([]string{"a", "a"}); !errors.Is(err, matcherrors.ErrDeckSizeMismatch) {
		t.Fatalf("expected ErrDeckSizeMismatch, got %v", err)
	}
	if g.Board() != before {
		t.Error("failed Start must not replace the board")
	}
}

func TestStartDoesNotMutateDeck(t *testing.T) {
	g, _ := New(4, "easy", rng.New(7))
	deck := sequentialDeck(4)
	orig := slices.Clone(deck)

	if err := g.Start(deck); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(deck, orig) {
		t.Error("Start shuffled the caller's deck")
	}
	if g.State() != WaitingFirstPick {
		t.Errorf("expected %v, got %v", WaitingFirstPick, g.State())
	}
	if len(g.Board().HiddenPositions()) != 16 {
		t.Error("expected every card hidden after Start")
	}
}

func TestFlipBeforeStart(t *testing.T) {
	g, _ := New(4, "easy", rng.New(1))
	if err := g.Flip(0, 0); !errors.Is(err, matcherrors.ErrGameNotStarted) {
		t.Errorf("expected ErrGameNotStarted, got %v", err)
	}
	if _, err := g.Resolve(); !errors.Is(err, matcherrors.ErrGameNotStarted) {
		t.Errorf("expected ErrGameNotStarted, got %v", err)
	}
	if g.AllowedMoves() != nil {
		t.Error("expected no allowed moves before Start")
	}
}

// Scenario: two different words are flipped and turned back.
func TestMismatchHidesBothCards(t *testing.T) {
	g := newRiggedGame(t, 4, sequentialDeck(4))

	// A1 and B1 hold different pairs.
	if err := g.Flip(0, 0); err != nil {
		t.Fatal(err)
	}
	if g.State() != WaitingSecondPick {
		t.Fatalf("expected %v, got %v", WaitingSecondPick, g.State())
	}
	if err := g.Flip(1, 0); err != nil {
		t.Fatal(err)
	}
	if g.State() != Resolving {
		t.Fatalf("expected %v, got %v", Resolving, g.State())
	}

	res, err := g.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched {
		t.Error("expected no match")
	}
	if res.First != (Position{0, 0}) || res.Second != (Position{1, 0}) {
		t.Errorf("unexpected resolution positions %+v", res)
	}
	for _, p := range []Position{{0, 0}, {1, 0}} {
		card, _ := g.Board().CardAt(p.Row, p.Col)
		if card.State != Hidden {
			t.Errorf("expected %v hidden, got %v", p, card.State)
		}
	}
	if g.Moves() != 1 {
		t.Errorf("expected 1 move, got %d", g.Moves())
	}
	if g.State() != WaitingFirstPick {
		t.Errorf("expected %v, got %v", WaitingFirstPick, g.State())
	}
}

// Scenario: on a seeded easy board, A1 and A2 are flipped and do not match.
func TestSeededMismatch(t *testing.T) {
	g, err := Setup(config.Defaults(), "easy", words.Default(), rng.New(42))
	if err != nil {
		t.Fatal(err)
	}
	b := g.Board()
	first, _ := b.ParsePosition("A1")
	c1, _ := b.CardAt(first.Row, first.Col)

	// A2 unless this layout happens to pair it with A1.
	var second Position
	var c2 Card
	for _, coord := range []string{"A2", "B1", "B2"} {
		p, _ := b.ParsePosition(coord)
		c, _ := b.CardAt(p.Row, p.Col)
		if c.Value != c1.Value {
			second, c2 = p, c
			break
		}
	}
	if c2.Value == "" || c1.Value == c2.Value {
		t.Fatalf("no mismatching second card next to A1 (%q)", c1.Value)
	}

	if err := g.Flip(first.Row, first.Col); err != nil {
		t.Fatal(err)
	}
	if err := g.Flip(second.Row, second.Col); err != nil {
		t.Fatal(err)
	}
	res, err := g.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched {
		t.Error("expected no match")
	}
	for _, p := range []Position{first, second} {
		card, _ := g.Board().CardAt(p.Row, p.Col)
		if card.State != Hidden {
			t.Errorf("expected %v hidden, got %v", p, card.State)
		}
	}
	if g.Moves() != 1 {
		t.Errorf("expected 1 move, got %d", g.Moves())
	}
	if g.State() != WaitingFirstPick {
		t.Errorf("expected %v, got %v", WaitingFirstPick, g.State())
	}
}

// Resolve refuses to guess when the board does not hold exactly two face-up cards.
func TestResolveWithExtraFlippedCards(t *testing.T) {
	g := newRiggedGame(t, 4, sequentialDeck(4))
	if err := g.Flip(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.Flip(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.board.SetState(2, 0, Flipped); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Resolve(); !errors.Is(err, matcherrors.ErrInternal) {
		t.Errorf("expected ErrInternal, got %v", err)
	}
	if g.Moves() != 0 {
		t.Errorf("failed resolve must not count a move, got %d", g.Moves())
	}
}

// Scenario: a matching pair stays face up for good.
func TestMatchLocksCards(t *testing.T) {
	deck := sequentialDeck(4)
	deck[0], deck[1] = "PAIR", "PAIR"
	g := newRiggedGame(t, 4, deck)

	g.Flip(0, 0)
	g.Flip(0, 1)
	res, err := g.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Matched {
		t.Fatal("expected a match")
	}
	if got := g.Board().MatchedPositions(); len(got) != 2 {
		t.Errorf("expected 2 matched cells, got %v", got)
	}
	if g.MatchedPairs() != 1 {
		t.Errorf("expected 1 matched pair, got %d", g.MatchedPairs())
	}

	if err := g.Flip(0, 0); !errors.Is(err, matcherrors.ErrInvalidMove) {
		t.Errorf("expected ErrInvalidMove flipping a matched card, got %v", err)
	}
	if g.CanFlip(0, 0) {
		t.Error("matched card must not be flippable")
	}
}

func TestFlipSameCardTwice(t *testing.T) {
	g := newRiggedGame(t, 2, []string{"a", "a", "b", "b"})
	g.Flip(0, 0)
	if err := g.Flip(0, 0); !errors.Is(err, matcherrors.ErrInvalidMove) {
		t.Errorf("expected ErrInvalidMove, got %v", err)
	}
	if g.State() != WaitingSecondPick {
		t.Errorf("rejected flip changed state to %v", g.State())
	}
}

func TestPhaseGuards(t *testing.T) {
	g := newRiggedGame(t, 2, []string{"a", "b", "a", "b"})

	if _, err := g.Resolve(); !errors.Is(err, matcherrors.ErrWrongPhase) {
		t.Errorf("resolve with no cards: expected ErrWrongPhase, got %v", err)
	}
	g.Flip(0, 0)
	if _, err := g.Resolve(); !errors.Is(err, matcherrors.ErrWrongPhase) {
		t.Errorf("resolve with one card: expected ErrWrongPhase, got %v", err)
	}
	g.Flip(0, 1)
	if err := g.Flip(1, 0); !errors.Is(err, matcherrors.ErrWrongPhase) {
		t.Errorf("third flip: expected ErrWrongPhase, got %v", err)
	}
	if g.AllowedMoves() != nil {
		t.Error("expected no allowed moves while resolving")
	}
	if g.Moves() != 0 {
		t.Errorf("rejected actions must not count as moves, got %d", g.Moves())
	}
}

func TestFlipOutOfBounds(t *testing.T) {
	g := newRiggedGame(t, 2, []string{"a", "a", "b", "b"})
	if err := g.Flip(2, 0); !errors.Is(err, matcherrors.ErrCoordinateOutOfBounds) {
		t.Errorf("expected ErrCoordinateOutOfBounds, got %v", err)
	}
	if err := g.Flip(0, -1); !errors.Is(err, matcherrors.ErrCoordinateOutOfBounds) {
		t.Errorf("expected ErrCoordinateOutOfBounds, got %v", err)
	}
}

// Scenario: the last pair finishes the game and freezes the clock.
func TestFinishOnLastPair(t *testing.T) {
	const size = 4
	g := newRiggedGame(t, size, sequentialDeck(size))
	now, advance := fakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	g.now = now

	if g.Elapsed() != 0 || g.Started() {
		t.Fatal("clock must not run before the first flip")
	}

	pairs := size * size / 2
	for i := 0; i < pairs; i++ {
		if g.IsFinished() {
			t.Fatalf("finished early after %d pairs", i)
		}
		g.Flip(pos(2*i, size))
		advance(time.Second)
		g.Flip(pos(2*i+1, size))
		advance(500 * time.Millisecond)
		res, err := g.Resolve()
		if err != nil {
			t.Fatalf("pair %d: %v", i, err)
		}
		if !res.Matched {
			t.Fatalf("pair %d: expected match", i)
		}
	}

	if !g.IsFinished() || g.State() != Finished {
		t.Fatalf("expected finished, got %v", g.State())
	}
	if g.Moves() != pairs {
		t.Errorf("expected %d moves, got %d", pairs, g.Moves())
	}
	if g.MatchedPairs() != pairs {
		t.Errorf("expected %d pairs, got %d", pairs, g.MatchedPairs())
	}

	want := time.Duration(pairs) * 1500 * time.Millisecond
	if g.Elapsed() != want {
		t.Errorf("expected elapsed %v, got %v", want, g.Elapsed())
	}
	advance(time.Hour)
	if g.Elapsed() != want {
		t.Errorf("elapsed must be frozen after finish, got %v", g.Elapsed())
	}

	if err := g.Flip(0, 0); !errors.Is(err, matcherrors.ErrWrongPhase) {
		t.Errorf("flip after finish: expected ErrWrongPhase, got %v", err)
	}
}

func TestMovesCountMismatches(t *testing.T) {
	g := newRiggedGame(t, 2, []string{"a", "b", "a", "b"})

	g.Flip(0, 0)
	g.Flip(0, 1)
	g.Resolve() // a/b
	g.Flip(0, 0)
	g.Flip(1, 0)
	g.Resolve() // a/a
	g.Flip(0, 1)
	g.Flip(1, 1)
	g.Resolve() // b/b

	if !g.IsFinished() {
		t.Fatalf("expected finished, got %v", g.State())
	}
	if g.Moves() != 3 {
		t.Errorf("expected 3 moves, got %d", g.Moves())
	}
}

func TestElapsedRunsWhilePlaying(t *testing.T) {
	g := newRiggedGame(t, 2, []string{"a", "a", "b", "b"})
	now, advance := fakeClock(time.Unix(1000, 0))
	g.now = now

	g.Flip(0, 0)
	advance(3 * time.Second)
	if g.Elapsed() != 3*time.Second {
		t.Errorf("expected 3s, got %v", g.Elapsed())
	}
}

func TestSetupDeterministic(t *testing.T) {
	cfg := config.Defaults()
	pool := words.Default()

	g1, err := Setup(cfg, "easy", pool, rng.New(42))
	if err != nil {
		t.Fatal(err)
	}
	g2, err := Setup(cfg, "easy", pool, rng.New(42))
	if err != nil {
		t.Fatal(err)
	}
	g3, err := Setup(cfg, "easy", pool, rng.New(43))
	if err != nil {
		t.Fatal(err)
	}

	if layout(g1) != layout(g2) {
		t.Error("same seed produced different layouts")
	}
	if layout(g1) == layout(g3) {
		t.Error("different seeds produced the same layout")
	}
	if g1.Seed() != 42 || g1.Difficulty() != "easy" {
		t.Errorf("unexpected seed/difficulty %d/%s", g1.Seed(), g1.Difficulty())
	}
}

func TestSetupEveryWordTwice(t *testing.T) {
	g, err := Setup(config.Defaults(), "hard", words.Default(), rng.New(3))
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			card, _ := g.Board().CardAt(r, c)
			counts[card.Value]++
		}
	}
	if len(counts) != 32 {
		t.Errorf("expected 32 distinct words, got %d", len(counts))
	}
	for w, n := range counts {
		if n != 2 {
			t.Errorf("word %q appears %d times", w, n)
		}
	}
}

func TestSetupErrors(t *testing.T) {
	if _, err := Setup(config.Defaults(), "insane", words.Default(), rng.New(1)); !errors.Is(err, matcherrors.ErrUnknownDifficulty) {
		t.Errorf("expected ErrUnknownDifficulty, got %v", err)
	}

	cfg := config.Defaults()
	cfg.Difficulties["huge"] = 26
	if _, err := Setup(cfg, "huge", words.Default(), rng.New(1)); !errors.Is(err, matcherrors.ErrInsufficientVocabulary) {
		t.Errorf("expected ErrInsufficientVocabulary, got %v", err)
	}
}

func TestStateStrings(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{WaitingFirstPick, "waiting_first_pick"},
		{WaitingSecondPick, "waiting_second_pick"},
		{Resolving, "resolving"},
		{Finished, "finished"},
		{State(42), "unknown"},
	}
	for _, test := range tests {
		if got := test.state.String(); got != test.expected {
			t.Errorf("State(%d).String() = %q, want %q", test.state, got, test.expected)
		}
	}
}

func layout(g *Game) string {
	var s string
	size := g.Board().Size()
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			card, _ := g.Board().CardAt(r, c)
			s += card.Value + ","
		}
	}
	return s
}
