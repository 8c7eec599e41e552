package matcherrors

import "errors"

// Sentinel errors shared by the engine, the word supply, the score ledger and the
// front-ends. Wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// Player input.
	ErrCoordinateFormat      = errors.New("invalid coordinate format")
	ErrCoordinateOutOfBounds = errors.New("coordinate out of bounds")
	ErrDuplicateCoordinate   = errors.New("duplicate coordinate")

	// Illegal operation for the current state. The engine state is unchanged.
	ErrWrongPhase         = errors.New("operation not allowed in current phase")
	ErrInvalidMove        = errors.New("invalid move")
	ErrAlreadyInState     = errors.New("card already in requested state")
	ErrCardAlreadyMatched = errors.New("card already matched")
	ErrGameNotStarted     = errors.New("game not started")

	// Session setup. No board is created when one of these is returned.
	ErrDeckSizeMismatch       = errors.New("deck size does not match board")
	ErrInsufficientVocabulary = errors.New("not enough words in word pool")
	ErrInsufficientPopulation = errors.New("sample larger than population")
	ErrInvalidBoardSize       = errors.New("invalid board size")
	ErrUnknownDifficulty      = errors.New("unknown difficulty")

	// Score store integrity.
	ErrCorruptStore = errors.New("score store is corrupt")
	ErrValidation   = errors.New("score record validation failed")

	// Engine bug; not meant to be recovered from.
	ErrInternal = errors.New("internal engine error")
)

// Kind strings reported to clients.
const (
	KindInput    = "input"
	KindState    = "state"
	KindSetup    = "setup"
	KindStore    = "store"
	KindInternal = "internal"
	KindUnknown  = "unknown"

	// Not tied to a sentinel: malformed client messages and rejected tokens.
	KindProtocol = "protocol"
	KindAuth     = "auth"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrCoordinateFormat, KindInput},
	{ErrCoordinateOutOfBounds, KindInput},
	{ErrDuplicateCoordinate, KindInput},
	{ErrWrongPhase, KindState},
	{ErrInvalidMove, KindState},
	{ErrAlreadyInState, KindState},
	{ErrCardAlreadyMatched, KindState},
	{ErrGameNotStarted, KindState},
	{ErrDeckSizeMismatch, KindSetup},
	{ErrInsufficientVocabulary, KindSetup},
	{ErrInsufficientPopulation, KindSetup},
	{ErrInvalidBoardSize, KindSetup},
	{ErrUnknownDifficulty, KindSetup},
	{ErrCorruptStore, KindStore},
	{ErrValidation, KindStore},
	{ErrInternal, KindInternal},
}

// KindOf classifies err into one of the Kind constants.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Recoverable reports whether the caller should re-prompt rather than abort the session.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindInput, KindState:
		return true
	}
	return false
}
