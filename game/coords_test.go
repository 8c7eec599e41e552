package game

import (
	"errors"
	"testing"

	"word-memory-server/matcherrors"
)

func TestParsePosition(t *testing.T) {
	b, _ := NewBoard(4)

	tests := []struct {
		in      string
		want    Position
		wantErr error
	}{
		{"A1", Position{0, 0}, nil},
		{"b3", Position{2, 1}, nil},
		{"  d4 ", Position{3, 3}, nil},
		{"C01", Position{0, 2}, nil},
		{"", Position{}, matcherrors.ErrCoordinateFormat},
		{"   ", Position{}, matcherrors.ErrCoordinateFormat},
		{"A", Position{}, matcherrors.ErrCoordinateFormat},
		{"11", Position{}, matcherrors.ErrCoordinateFormat},
		{"AB", Position{}, matcherrors.ErrCoordinateFormat},
		{"A-1", Position{}, matcherrors.ErrCoordinateFormat},
		{"A1x", Position{}, matcherrors.ErrCoordinateFormat},
		{"Z9", Position{}, matcherrors.ErrCoordinateOutOfBounds},
		{"E1", Position{}, matcherrors.ErrCoordinateOutOfBounds},
		{"A5", Position{}, matcherrors.ErrCoordinateOutOfBounds},
		{"A0", Position{}, matcherrors.ErrCoordinateOutOfBounds},
		{"A99999999999999999999", Position{}, matcherrors.ErrCoordinateOutOfBounds},
	}

	for _, test := range tests {
		got, err := b.ParsePosition(test.in)
		if test.wantErr != nil {
			if !errors.Is(err, test.wantErr) {
				t.Errorf("ParsePosition(%q): expected %v, got %v", test.in, test.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePosition(%q): unexpected error %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParsePosition(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	for _, size := range []int{2, 4, 8, 26} {
		b, _ := NewBoard(size)
		for r := 0; r < size; r++ {
			for c := 0; c < size; c++ {
				text := FormatPosition(r, c)
				got, err := b.ParsePosition(text)
				if err != nil {
					t.Fatalf("size %d: ParsePosition(%q): %v", size, text, err)
				}
				if got != (Position{r, c}) {
					t.Fatalf("size %d: round trip of (%d,%d) gave %v", size, r, c, got)
				}
			}
		}
	}
}

func TestParseCoordList(t *testing.T) {
	b, _ := NewBoard(4)

	got, err := b.ParseCoordList("a1, B2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != (Position{0, 0}) || got[1] != (Position{1, 1}) {
		t.Errorf("unexpected positions %v", got)
	}

	got, err = b.ParseCoordList("C3")
	if err != nil || len(got) != 1 {
		t.Errorf("expected single coordinate, got %v (%v)", got, err)
	}

	tests := []struct {
		in   string
		want error
	}{
		{"", matcherrors.ErrCoordinateFormat},
		{" , ", matcherrors.ErrCoordinateFormat},
		{"A1 A2 A3", matcherrors.ErrCoordinateFormat},
		{"A1,a1", matcherrors.ErrDuplicateCoordinate},
		{"A1 Z9", matcherrors.ErrCoordinateOutOfBounds},
		{"B1 A99999999999999999999", matcherrors.ErrCoordinateOutOfBounds},
	}
	for _, test := range tests {
		if _, err := b.ParseCoordList(test.in); !errors.Is(err, test.want) {
			t.Errorf("ParseCoordList(%q): expected %v, got %v", test.in, test.want, err)
		}
	}
}
