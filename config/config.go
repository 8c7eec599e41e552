package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"word-memory-server/matcherrors"
)

// Config holds all configurable parameters. It is loaded once at start and treated
// as read-only afterwards.
type Config struct {
	// Difficulties maps a difficulty tag to its board size.
	Difficulties map[string]int `json:"difficulties"`

	DataDir   string `json:"data_dir"`
	WordsFile string `json:"words_file"` // empty = embedded default list
	ScoreFile string `json:"score_file"`

	HTTPPort         int  `json:"http_port"`
	RevealDurationMS int  `json:"reveal_duration_ms"`
	AutoResolve      bool `json:"auto_resolve"`
	MaxNameLength    int  `json:"max_name_length"`

	// DatabaseURL switches the score ledger to Postgres when set.
	DatabaseURL string `json:"database_url"`
	// AuthBaseURL enables JWT display names over WebSocket when set.
	AuthBaseURL string `json:"auth_base_url"`

	LogLevel string `json:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Difficulties:     map[string]int{"easy": 4, "medium": 6, "hard": 8},
		DataDir:          "data",
		ScoreFile:        "score.json",
		HTTPPort:         8080,
		RevealDurationMS: 1000,
		AutoResolve:      true,
		MaxNameLength:    15,
		LogLevel:         "info",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	return LoadFrom("config.json")
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		// A difficulties object in the file replaces the defaults instead of merging.
		defaults := cfg.Difficulties
		cfg.Difficulties = nil
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "err", err)
		}
		if cfg.Difficulties == nil {
			cfg.Difficulties = defaults
		}
	}

	overrideString(&cfg.DataDir, "DATA_DIR")
	overrideString(&cfg.WordsFile, "WORDS_FILE")
	overrideString(&cfg.ScoreFile, "SCORE_FILE")
	overrideInt(&cfg.HTTPPort, "HTTP_PORT")
	overrideInt(&cfg.RevealDurationMS, "REVEAL_DURATION_MS")
	overrideBool(&cfg.AutoResolve, "AUTO_RESOLVE")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.AuthBaseURL, "NEON_AUTH_BASE_URL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideDifficulties(cfg.Difficulties)

	return cfg
}

// Validate rejects board sizes that cannot hold a full set of pairs within the
// letter-addressed column range.
func (c *Config) Validate() error {
	if len(c.Difficulties) == 0 {
		return fmt.Errorf("%w: no difficulties configured", matcherrors.ErrUnknownDifficulty)
	}
	for tag, size := range c.Difficulties {
		if size < 2 || size > 26 {
			return fmt.Errorf("%w: %s=%d (allowed 2-26)", matcherrors.ErrInvalidBoardSize, tag, size)
		}
		if size%2 != 0 {
			return fmt.Errorf("%w: %s=%d leaves an unpaired card", matcherrors.ErrInvalidBoardSize, tag, size)
		}
	}
	return nil
}

// BoardSize returns the board size for a difficulty tag.
func (c *Config) BoardSize(difficulty string) (int, error) {
	size, ok := c.Difficulties[difficulty]
	if !ok {
		return 0, fmt.Errorf("%w: %q", matcherrors.ErrUnknownDifficulty, difficulty)
	}
	return size, nil
}

// DifficultyTags returns the configured tags ordered by board size, then name.
func (c *Config) DifficultyTags() []string {
	tags := make([]string, 0, len(c.Difficulties))
	for tag := range c.Difficulties {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, func(a, b string) int {
		if d := c.Difficulties[a] - c.Difficulties[b]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return tags
}

// ScorePath is the score ledger file inside DataDir.
func (c *Config) ScorePath() string {
	return filepath.Join(c.DataDir, c.ScoreFile)
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid integer in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func overrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*field = b
		} else {
			slog.Warn("invalid boolean in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

// overrideDifficulties applies BOARD_SIZE_<TAG> variables, e.g. BOARD_SIZE_EASY=2.
func overrideDifficulties(d map[string]int) {
	for tag := range d {
		size := d[tag]
		overrideInt(&size, "BOARD_SIZE_"+strings.ToUpper(tag))
		d[tag] = size
	}
}
