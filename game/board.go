package game

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"word-memory-server/matcherrors"
)

// Columns are addressed by a single letter, which caps the board at 26.
const (
	MinBoardSize = 2
	MaxBoardSize = 26
)

// CardState represents the current state of a card.
type CardState int

const (
	Hidden CardState = iota
	Flipped
	Matched
)

// String returns the string representation of a CardState.
func (cs CardState) String() string {
	switch cs {
	case Hidden:
		return "hidden"
	case Flipped:
		return "flipped"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

var cardStateDescriptions = map[CardState]string{
	Hidden:  "the card is face down",
	Flipped: "the card is face up",
	Matched: "the card has been matched",
}

// Description returns player-facing text for the state.
func (cs CardState) Description() string {
	if d, ok := cardStateDescriptions[cs]; ok {
		return d
	}
	return "unknown card state"
}

// Card represents a single card on the board.
type Card struct {
	Value string
	State CardState
}

// Position is a zero-based cell address.
type Position struct {
	Row int
	Col int
}

// String renders the position as a player coordinate, e.g. "B3".
func (p Position) String() string {
	return FormatPosition(p.Row, p.Col)
}

// Board is a fixed size x size grid of cards. The grid is created once by Create
// and its dimensions never change afterwards.
type Board struct {
	size    int
	cells   [][]Card
	wordLen int
}

// NewBoard returns an empty board. Create must be called before the board is used.
func NewBoard(size int) (*Board, error) {
	if size < MinBoardSize || size > MaxBoardSize {
		return nil, fmt.Errorf("%w: %d (allowed %d-%d)", matcherrors.ErrInvalidBoardSize, size, MinBoardSize, MaxBoardSize)
	}
	return &Board{size: size}, nil
}

// Create lays out deck row-major with every card hidden.
func (b *Board) Create(deck []string) error {
	if b.cells != nil {
		return fmt.Errorf("%w: board already created", matcherrors.ErrInternal)
	}
	if len(deck) != b.size*b.size {
		return fmt.Errorf("%w: got %d cards, expected %d", matcherrors.ErrDeckSizeMismatch, len(deck), b.size*b.size)
	}
	cells := make([][]Card, b.size)
	longest := 1
	k := 0
	for r := range cells {
		cells[r] = make([]Card, b.size)
		for c := range cells[r] {
			cells[r][c] = Card{Value: deck[k], State: Hidden}
			if n := utf8.RuneCountInString(deck[k]); n > longest {
				longest = n
			}
			k++
		}
	}
	b.cells = cells
	b.wordLen = longest
	return nil
}

// Size returns the number of rows (and columns).
func (b *Board) Size() int {
	return b.size
}

// InBounds reports whether (row, col) addresses a cell.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.size && col >= 0 && col < b.size
}

func (b *Board) cell(row, col int) (*Card, error) {
	if b.cells == nil {
		return nil, matcherrors.ErrGameNotStarted
	}
	if !b.InBounds(row, col) {
		return nil, fmt.Errorf("%w: (%d, %d) on a %dx%d board", matcherrors.ErrCoordinateOutOfBounds, row, col, b.size, b.size)
	}
	return &b.cells[row][col], nil
}

// CardAt returns a copy of the card at (row, col).
func (b *Board) CardAt(row, col int) (Card, error) {
	c, err := b.cell(row, col)
	if err != nil {
		return Card{}, err
	}
	return *c, nil
}

// SetState moves the card at (row, col) to s. Matched is terminal: no transition
// out of it is accepted, not even to Matched again.
func (b *Board) SetState(row, col int, s CardState) error {
	c, err := b.cell(row, col)
	if err != nil {
		return err
	}
	if c.State == Matched {
		return fmt.Errorf("%w: %s", matcherrors.ErrCardAlreadyMatched, FormatPosition(row, col))
	}
	if c.State == s {
		return fmt.Errorf("%w: %s, %s", matcherrors.ErrAlreadyInState, FormatPosition(row, col), s.Description())
	}
	c.State = s
	return nil
}

func (b *Board) positions(s CardState) []Position {
	var out []Position
	for r, row := range b.cells {
		for c, card := range row {
			if card.State == s {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// HiddenPositions returns face-down cells in row-major order.
func (b *Board) HiddenPositions() []Position { return b.positions(Hidden) }

// FlippedPositions returns face-up, unresolved cells in row-major order.
func (b *Board) FlippedPositions() []Position { return b.positions(Flipped) }

// MatchedPositions returns matched cells in row-major order.
func (b *Board) MatchedPositions() []Position { return b.positions(Matched) }

// ResetFlipped turns every flipped card face down again.
func (b *Board) ResetFlipped() {
	for r := range b.cells {
		for c := range b.cells[r] {
			if b.cells[r][c].State == Flipped {
				b.cells[r][c].State = Hidden
			}
		}
	}
}

// String renders the grid with column letters across the top and 1-indexed rows.
// Hidden cards show a dash run as wide as the longest word on the board.
func (b *Board) String() string {
	if b.cells == nil {
		return "<empty board>"
	}
	w := b.wordLen
	var sb strings.Builder
	sb.WriteString("     ")
	for c := 0; c < b.size; c++ {
		if c > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(pad(string(rune('A'+c)), w))
	}
	for r, row := range b.cells {
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, "%-2d | ", r+1)
		for c, card := range row {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if card.State == Hidden {
				sb.WriteString(strings.Repeat("-", w))
			} else {
				sb.WriteString(pad(card.Value, w))
			}
		}
	}
	return sb.String()
}

// pad right-pads s with spaces to w runes.
func pad(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}
