package game

import (
	"errors"
	"strings"
	"testing"

	"word-memory-server/matcherrors"
)

func newTestBoard(t *testing.T, size int, deck []string) *Board {
	t.Helper()
	b, err := NewBoard(size)
	if err != nil {
		t.Fatalf("NewBoard(%d): %v", size, err)
	}
	if err := b.Create(deck); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return b
}

func TestNewBoardSizeLimits(t *testing.T) {
	for _, size := range []int{-1, 0, 1, 27} {
		if _, err := NewBoard(size); !errors.Is(err, matcherrors.ErrInvalidBoardSize) {
			t.Errorf("NewBoard(%d): expected ErrInvalidBoardSize, got %v", size, err)
		}
	}
	for _, size := range []int{2, 26} {
		if _, err := NewBoard(size); err != nil {
			t.Errorf("NewBoard(%d): unexpected error %v", size, err)
		}
	}
}

func TestCreateRowMajorHidden(t *testing.T) {
	b := newTestBoard(t, 2, []string{"a", "b", "c", "d"})

	want := [][]string{{"a", "b"}, {"c", "d"}}
	for r := range want {
		for c := range want[r] {
			card, err := b.CardAt(r, c)
			if err != nil {
				t.Fatal(err)
			}
			if card.Value != want[r][c] {
				t.Errorf("expected (%d,%d)=%q, got %q", r, c, want[r][c], card.Value)
			}
			if card.State != Hidden {
				t.Errorf("expected (%d,%d) hidden, got %v", r, c, card.State)
			}
		}
	}
	if len(b.HiddenPositions()) != 4 {
		t.Errorf("expected 4 hidden positions, got %d", len(b.HiddenPositions()))
	}
}

func TestCreateDeckSizeMismatch(t *testing.T) {
	b, _ := NewBoard(4)
	err := b.Create([]string{"a", "a"})
	if !errors.Is(err, matcherrors.ErrDeckSizeMismatch) {
		t.Fatalf("expected ErrDeckSizeMismatch, got %v", err)
	}
	if _, err := b.CardAt(0, 0); !errors.Is(err, matcherrors.ErrGameNotStarted) {
		t.Errorf("board should have no grid after a failed Create, got %v", err)
	}
}

func TestSetStateTransitions(t *testing.T) {
	b := newTestBoard(t, 2, []string{"a", "a", "b", "b"})

	if err := b.SetState(0, 0, Flipped); err != nil {
		t.Fatalf("hidden -> flipped: %v", err)
	}
	if err := b.SetState(0, 0, Flipped); !errors.Is(err, matcherrors.ErrAlreadyInState) {
		t.Errorf("flipped -> flipped: expected ErrAlreadyInState, got %v", err)
	}
	if err := b.SetState(0, 0, Hidden); err != nil {
		t.Fatalf("flipped -> hidden: %v", err)
	}
	if err := b.SetState(5, 0, Flipped); !errors.Is(err, matcherrors.ErrCoordinateOutOfBounds) {
		t.Errorf("off-board: expected ErrCoordinateOutOfBounds, got %v", err)
	}
}

func TestMatchedIsTerminal(t *testing.T) {
	b := newTestBoard(t, 2, []string{"a", "a", "b", "b"})
	if err := b.SetState(0, 0, Matched); err != nil {
		t.Fatal(err)
	}

	for _, target := range []CardState{Hidden, Flipped, Matched} {
		err := b.SetState(0, 0, target)
		if !errors.Is(err, matcherrors.ErrCardAlreadyMatched) {
			t.Errorf("matched -> %v: expected ErrCardAlreadyMatched, got %v", target, err)
		}
	}
	card, _ := b.CardAt(0, 0)
	if card.State != Matched {
		t.Errorf("expected card to stay matched, got %v", card.State)
	}
}

func TestPositionQueriesAndReset(t *testing.T) {
	b := newTestBoard(t, 2, []string{"a", "a", "b", "b"})
	b.SetState(0, 0, Matched)
	b.SetState(0, 1, Matched)
	b.SetState(1, 0, Flipped)

	if got := b.MatchedPositions(); len(got) != 2 || got[0] != (Position{0, 0}) || got[1] != (Position{0, 1}) {
		t.Errorf("unexpected matched positions %v", got)
	}
	if got := b.FlippedPositions(); len(got) != 1 || got[0] != (Position{1, 0}) {
		t.Errorf("unexpected flipped positions %v", got)
	}

	b.ResetFlipped()

	if got := b.FlippedPositions(); len(got) != 0 {
		t.Errorf("expected no flipped cards after reset, got %v", got)
	}
	if got := b.HiddenPositions(); len(got) != 2 {
		t.Errorf("expected 2 hidden cards after reset, got %v", got)
	}
	if got := b.MatchedPositions(); len(got) != 2 {
		t.Errorf("reset must not touch matched cards, got %v", got)
	}
}

func TestBoardString(t *testing.T) {
	b := newTestBoard(t, 2, []string{"ab", "cde", "ab", "cde"})
	b.SetState(0, 0, Flipped)

	want := strings.Join([]string{
		"     A   B  ",
		"1  | ab  ---",
		"2  | --- ---",
	}, "\n")
	if got := b.String(); got != want {
		t.Errorf("unexpected rendering:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmptyBoardString(t *testing.T) {
	b, _ := NewBoard(2)
	if got := b.String(); got != "<empty board>" {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestCardStateString(t *testing.T) {
	tests := []struct {
		state    CardState
		expected string
	}{
		{Hidden, "hidden"},
		{Flipped, "flipped"},
		{Matched, "matched"},
		{CardState(9), "unknown"},
	}

	for _, test := range tests {
		if got := test.state.String(); got != test.expected {
			t.Errorf("CardState(%d).String() = %q, want %q", test.state, got, test.expected)
		}
		if test.state.Description() == "" {
			t.Errorf("CardState(%d) has no description", test.state)
		}
	}
}
