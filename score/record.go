package score

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"word-memory-server/matcherrors"
)

const (
	// MaxNameLength is the longest user name stored in a record, in runes.
	MaxNameLength = 15
	// DefaultName replaces an empty user name.
	DefaultName = "Anonymous"

	TimestampLayout = "2006-01-02 15:04:05"

	minTime = 0.01
)

// Record is one ledger entry. Records are never mutated after Append.
type Record struct {
	GameID     string  `json:"game_id" validate:"required"`
	UserName   string  `json:"user_name" validate:"required,max=15"`
	Moves      int     `json:"moves" validate:"gte=0"`
	Time       float64 `json:"time" validate:"gt=0"`
	Difficulty string  `json:"difficulty" validate:"required"`
	Finished   bool    `json:"finished"`
	Timestamp  string  `json:"timestamp" validate:"required"`
	Seed       int64   `json:"seed"`
}

// UnmarshalJSON accepts numeric game ids and the legacy time_stamp key written by
// older versions of the score file.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		GameID    json.RawMessage `json:"game_id"`
		TimeStamp string          `json:"time_stamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)

	id := bytes.TrimSpace(aux.GameID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
		r.GameID = ""
	case id[0] == '"':
		if err := json.Unmarshal(id, &r.GameID); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("game_id: %w", err)
		}
		r.GameID = n.String()
	}

	if r.Timestamp == "" {
		r.Timestamp = aux.TimeStamp
	}
	return nil
}

// Result is what a finished or abandoned session reports to the ledger.
type Result struct {
	UserName   string
	Moves      int
	Elapsed    time.Duration
	Difficulty string
	Finished   bool
	Seed       int64
}

// NewRecord builds a Record for res with a fresh game id, stamped at now.
func NewRecord(res Result, now time.Time) Record {
	return Record{
		GameID:     uuid.NewString(),
		UserName:   DisplayName(res.UserName, MaxNameLength),
		Moves:      res.Moves,
		Time:       roundTime(res.Elapsed),
		Difficulty: res.Difficulty,
		Finished:   res.Finished,
		Timestamp:  now.Local().Format(TimestampLayout),
		Seed:       res.Seed,
	}
}

// DisplayName trims name, falls back to DefaultName and cuts it to max runes
// (never more than MaxNameLength).
func DisplayName(name string, max int) string {
	if max <= 0 || max > MaxNameLength {
		max = MaxNameLength
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName
	}
	if utf8.RuneCountInString(name) > max {
		name = strings.TrimSpace(string([]rune(name)[:max]))
	}
	return name
}

func roundTime(d time.Duration) float64 {
	t := math.Round(d.Seconds()*100) / 100
	if t < minTime {
		return minTime
	}
	return t
}

var validate = validator.New()

// Validate checks rec's fields and that its difficulty is one of difficulties.
// Errors wrap matcherrors.ErrValidation.
func Validate(rec Record, difficulties map[string]int) error {
	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}
	if _, ok := difficulties[rec.Difficulty]; !ok {
		return fmt.Errorf("%w: difficulty %q is not configured", matcherrors.ErrValidation, rec.Difficulty)
	}
	return nil
}

func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, formatFieldError(e))
		}
		return fmt.Errorf("%w: %s", matcherrors.ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", matcherrors.ErrValidation, err)
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
