// Package words loads the word pool and hands out distinct words for a session.
//
// Pool entries are trimmed, repaired when a UTF-8 file was decoded as Latin-1
// somewhere upstream ("Ã¤" instead of "ä"), NFC-normalized, deduplicated and sorted.
// Sorting keeps sampling reproducible: the same seed over the same file always
// yields the same words, regardless of line order or duplicates in the file.
package words

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"word-memory-server/matcherrors"
	"word-memory-server/rng"
)

//go:embed default_words.txt
var defaultWords string

// mojibakeMarkers are UTF-8 encoded accented letters read back as Latin-1.
var mojibakeMarkers = []string{"Ã¥", "Ã¤", "Ã¶", "Ã©", "Ã¼"}

// Pool is a sorted set of distinct words.
type Pool struct {
	words []string
}

// Default returns the pool built from the embedded word list.
func Default() *Pool {
	p, _ := Parse(strings.NewReader(defaultWords))
	return p
}

// LoadFile reads a pool from a file with one word per line.
func LoadFile(path string) (*Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Open loads path, or the embedded list when path is empty.
func Open(path string) (*Pool, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Parse reads a pool with one word per line. Blank lines are ignored.
func Parse(r io.Reader) (*Pool, error) {
	seen := make(map[string]struct{})
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := Normalize(sc.Text())
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	slices.Sort(out)
	return &Pool{words: out}, nil
}

// Normalize trims s, repairs Latin-1 mojibake and returns its NFC form.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = repairMojibake(s)
	return norm.NFC.String(s)
}

func repairMojibake(s string) string {
	hit := false
	for _, m := range mojibakeMarkers {
		if strings.Contains(s, m) {
			hit = true
			break
		}
	}
	if !hit {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return s
	}
	return raw
}

// Len returns the number of distinct words.
func (p *Pool) Len() int {
	return len(p.words)
}

// Words returns a copy of the pool contents.
func (p *Pool) Words() []string {
	return slices.Clone(p.words)
}

// Supply picks pair words from a pool using a session's random source.
type Supply struct {
	pool *Pool
	src  *rng.Source
}

// NewSupply creates a Supply drawing from pool with src.
func NewSupply(pool *Pool, src *rng.Source) *Supply {
	return &Supply{pool: pool, src: src}
}

// PickPairWords returns exactly n distinct words.
func (s *Supply) PickPairWords(n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least one pair, got %d", matcherrors.ErrInsufficientVocabulary, n)
	}
	if s.pool.Len() < n {
		return nil, fmt.Errorf("%w: need %d words, pool has %d", matcherrors.ErrInsufficientVocabulary, n, s.pool.Len())
	}
	return rng.Sample(s.src, s.pool.words, n)
}

// BuildDeck returns a deck holding every word twice, pairs adjacent.
func BuildDeck(pairWords []string) []string {
	deck := make([]string, 0, 2*len(pairWords))
	for _, w := range pairWords {
		deck = append(deck, w, w)
	}
	return deck
}
