package game

import (
	"fmt"
	"slices"
	"time"

	"word-memory-server/config"
	"word-memory-server/matcherrors"
	"word-memory-server/rng"
	"word-memory-server/words"
)

// State is the turn phase of a session.
type State int

const (
	WaitingFirstPick State = iota
	WaitingSecondPick
	Resolving
	Finished
)

// String returns the protocol string for a State.
func (s State) String() string {
	switch s {
	case WaitingFirstPick:
		return "waiting_first_pick"
	case WaitingSecondPick:
		return "waiting_second_pick"
	case Resolving:
		return "resolving"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

var stateDescriptions = map[State]string{
	WaitingFirstPick:  "pick a first card",
	WaitingSecondPick: "pick a second card",
	Resolving:         "two cards are face up",
	Finished:          "all pairs found",
}

// Description returns player-facing text for the state.
func (s State) Description() string {
	if d, ok := stateDescriptions[s]; ok {
		return d
	}
	return "unknown state"
}

// Resolution is the outcome of one Resolve call.
type Resolution struct {
	Matched bool
	First   Position
	Second  Position
}

// Game manages a single memory session. It is not safe for concurrent use; callers
// that share a Game between goroutines must serialize access.
type Game struct {
	size       int
	difficulty string
	src        *rng.Source
	board      *Board

	state     State
	moves     int
	startedAt time.Time // first flip
	endedAt   time.Time // transition to Finished

	now func() time.Time
}

// New creates a game for a size x size board. Start must be called before play.
func New(size int, difficulty string, src *rng.Source) (*Game, error) {
	if _, err := NewBoard(size); err != nil {
		return nil, err
	}
	return &Game{
		size:       size,
		difficulty: difficulty,
		src:        src,
		now:        time.Now,
	}, nil
}

// Setup bootstraps a session for difficulty: it looks up the board size, draws the
// pair words from pool and starts the game. Words and shuffle both come from src,
// so the same seed always produces the same layout.
func Setup(cfg *config.Config, difficulty string, pool *words.Pool, src *rng.Source) (*Game, error) {
	size, err := cfg.BoardSize(difficulty)
	if err != nil {
		return nil, err
	}
	g, err := New(size, difficulty, src)
	if err != nil {
		return nil, err
	}
	pairWords, err := words.NewSupply(pool, src).PickPairWords(size * size / 2)
	if err != nil {
		return nil, err
	}
	if err := g.Start(words.BuildDeck(pairWords)); err != nil {
		return nil, err
	}
	return g, nil
}

// Start shuffles a copy of deck, lays it out on a fresh board and resets counters.
// On error the previous board (if any) is kept untouched.
func (g *Game) Start(deck []string) error {
	if len(deck) != g.size*g.size {
		return fmt.Errorf("%w: got %d cards, expected %d", matcherrors.ErrDeckSizeMismatch, len(deck), g.size*g.size)
	}
	local := slices.Clone(deck)
	rng.ShuffleSlice(g.src, local)

	b, err := NewBoard(g.size)
	if err != nil {
		return err
	}
	if err := b.Create(local); err != nil {
		return err
	}

	g.board = b
	g.state = WaitingFirstPick
	g.moves = 0
	g.startedAt = time.Time{}
	g.endedAt = time.Time{}
	return nil
}

// Flip turns the card at (row, col) face up.
func (g *Game) Flip(row, col int) error {
	if g.board == nil {
		return matcherrors.ErrGameNotStarted
	}
	if g.state != WaitingFirstPick && g.state != WaitingSecondPick {
		return fmt.Errorf("%w: cannot flip while %s", matcherrors.ErrWrongPhase, g.state)
	}
	card, err := g.board.CardAt(row, col)
	if err != nil {
		return err
	}
	if card.State != Hidden {
		return fmt.Errorf("%w: %s is %s", matcherrors.ErrInvalidMove, FormatPosition(row, col), card.State)
	}
	if err := g.board.SetState(row, col, Flipped); err != nil {
		return err
	}
	if g.startedAt.IsZero() {
		g.startedAt = g.now()
	}

	switch n := len(g.board.FlippedPositions()); n {
	case 1:
		g.state = WaitingSecondPick
	case 2:
		g.state = Resolving
	default:
		return fmt.Errorf("%w: %d cards face up", matcherrors.ErrInternal, n)
	}
	return nil
}

// Resolve compares the two face-up cards. Every call counts as one move, match or
// not. Matching cards become Matched; otherwise both are turned face down.
func (g *Game) Resolve() (Resolution, error) {
	if g.board == nil {
		return Resolution{}, matcherrors.ErrGameNotStarted
	}
	if g.state != Resolving {
		return Resolution{}, fmt.Errorf("%w: cannot resolve while %s", matcherrors.ErrWrongPhase, g.state)
	}
	flipped := g.board.FlippedPositions()
	if len(flipped) != 2 {
		return Resolution{}, fmt.Errorf("%w: resolve with %d cards face up", matcherrors.ErrInternal, len(flipped))
	}
	first, second := flipped[0], flipped[1]
	c1, _ := g.board.CardAt(first.Row, first.Col)
	c2, _ := g.board.CardAt(second.Row, second.Col)

	res := Resolution{Matched: c1.Value == c2.Value, First: first, Second: second}
	g.moves++

	if res.Matched {
		if err := g.board.SetState(first.Row, first.Col, Matched); err != nil {
			return Resolution{}, fmt.Errorf("%w: %v", matcherrors.ErrInternal, err)
		}
		if err := g.board.SetState(second.Row, second.Col, Matched); err != nil {
			return Resolution{}, fmt.Errorf("%w: %v", matcherrors.ErrInternal, err)
		}
	} else {
		g.board.ResetFlipped()
	}

	if len(g.board.MatchedPositions()) == g.size*g.size {
		g.state = Finished
		if g.endedAt.IsZero() {
			g.endedAt = g.now()
		}
	} else {
		g.state = WaitingFirstPick
	}
	return res, nil
}

// Elapsed is zero before the first flip, frozen once the game is finished and
// measured against the clock otherwise.
func (g *Game) Elapsed() time.Duration {
	if g.startedAt.IsZero() {
		return 0
	}
	if !g.endedAt.IsZero() {
		return g.endedAt.Sub(g.startedAt)
	}
	return g.now().Sub(g.startedAt)
}

// AllowedMoves lists the cells that may be flipped right now.
func (g *Game) AllowedMoves() []Position {
	if g.board == nil || (g.state != WaitingFirstPick && g.state != WaitingSecondPick) {
		return nil
	}
	return g.board.HiddenPositions()
}

// CanFlip reports whether Flip(row, col) would succeed.
func (g *Game) CanFlip(row, col int) bool {
	return slices.Contains(g.AllowedMoves(), Position{Row: row, Col: col})
}

// CurrentSelection returns the face-up, unresolved cells.
func (g *Game) CurrentSelection() []Position {
	if g.board == nil {
		return nil
	}
	return g.board.FlippedPositions()
}

// State returns the current turn phase.
func (g *Game) State() State { return g.state }

// IsFinished reports whether every pair has been found.
func (g *Game) IsFinished() bool { return g.state == Finished }

// Moves returns the number of Resolve calls so far.
func (g *Game) Moves() int { return g.moves }

func (g *Game) Difficulty() string { return g.difficulty }

func (g *Game) Seed() int64 { return g.src.Seed() }

// Board returns the session board, or nil before Start.
func (g *Game) Board() *Board { return g.board }

// Started reports whether a card has been flipped yet.
func (g *Game) Started() bool { return !g.startedAt.IsZero() }

// MatchedPairs returns the number of pairs found.
func (g *Game) MatchedPairs() int {
	if g.board == nil {
		return 0
	}
	return len(g.board.MatchedPositions()) / 2
}
