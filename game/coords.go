package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"word-memory-server/matcherrors"
)

// MaxCoordsPerLine is how many coordinates one input line may carry (one turn).
const MaxCoordsPerLine = 2

// FormatPosition renders a zero-based (row, col) as a coordinate such as "A1".
func FormatPosition(row, col int) string {
	return string(rune('A'+col)) + strconv.Itoa(row+1)
}

// ParsePosition parses "<Letter><Digits>" into a zero-based (row, col) on this
// board. The letter selects the column and is case-insensitive; the number is the
// 1-indexed row. Surrounding whitespace is ignored.
func (b *Board) ParsePosition(text string) (Position, error) {
	s := strings.ToUpper(strings.TrimSpace(text))
	if s == "" {
		return Position{}, fmt.Errorf("%w: empty coordinate, expected e.g. A1", matcherrors.ErrCoordinateFormat)
	}
	letter := s[0]
	if letter < 'A' || letter > 'Z' {
		return Position{}, fmt.Errorf("%w: %q must start with a column letter", matcherrors.ErrCoordinateFormat, text)
	}
	digits := s[1:]
	if digits == "" || !allDigits(digits) {
		return Position{}, fmt.Errorf("%w: %q must end with a row number", matcherrors.ErrCoordinateFormat, text)
	}
	n, err := strconv.Atoi(digits)
	if errors.Is(err, strconv.ErrRange) {
		return Position{}, fmt.Errorf("%w: %s is outside the %dx%d board", matcherrors.ErrCoordinateOutOfBounds, s, b.size, b.size)
	}
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q: %v", matcherrors.ErrCoordinateFormat, text, err)
	}
	p := Position{Row: n - 1, Col: int(letter - 'A')}
	if !b.InBounds(p.Row, p.Col) {
		return Position{}, fmt.Errorf("%w: %s is outside the %dx%d board", matcherrors.ErrCoordinateOutOfBounds, s, b.size, b.size)
	}
	return p, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseCoordList splits an input line on commas and whitespace and parses up to
// MaxCoordsPerLine coordinates. The same cell twice on one line is rejected here,
// before it can reach the engine.
func (b *Board) ParseCoordList(line string) ([]Position, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: enter at least one coordinate", matcherrors.ErrCoordinateFormat)
	}
	if len(fields) > MaxCoordsPerLine {
		return nil, fmt.Errorf("%w: at most %d coordinates per turn, got %d", matcherrors.ErrCoordinateFormat, MaxCoordsPerLine, len(fields))
	}
	out := make([]Position, 0, len(fields))
	for _, f := range fields {
		p, err := b.ParsePosition(f)
		if err != nil {
			return nil, err
		}
		for _, prev := range out {
			if prev == p {
				return nil, fmt.Errorf("%w: %s", matcherrors.ErrDuplicateCoordinate, p)
			}
		}
		out = append(out, p)
	}
	return out, nil
}
