// Package cli is the terminal front-end: a menu, the play loop and the highscore
// table, reading commands line by line from any io.Reader.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"word-memory-server/config"
	"word-memory-server/game"
	"word-memory-server/matcherrors"
	"word-memory-server/rng"
	"word-memory-server/score"
	"word-memory-server/words"
)

const quitCommand = "q"

// Column widths of the highscore table.
const (
	dateWidth  = 12
	nameWidth  = score.MaxNameLength + 1
	movesWidth = 6
	timeWidth  = 9
	placeWidth = 7
	tableWidth = dateWidth + nameWidth + movesWidth + timeWidth + placeWidth
)

// App runs interactive sessions against a word pool and a score ledger.
type App struct {
	cfg    *config.Config
	pool   *words.Pool
	ledger score.Ledger

	in  *bufio.Scanner
	out io.Writer

	// NewSource returns the random source of each new session.
	NewSource func() *rng.Source
	Now       func() time.Time
}

// New returns an App reading commands from in and writing to out.
func New(cfg *config.Config, pool *words.Pool, ledger score.Ledger, in io.Reader, out io.Writer) *App {
	return &App{
		cfg:       cfg,
		pool:      pool,
		ledger:    ledger,
		in:        bufio.NewScanner(in),
		out:       out,
		NewSource: rng.NewRandom,
		Now:       time.Now,
	}
}

// Run shows the main menu until the player quits or input ends. Only engine
// invariant violations are returned as errors.
func (a *App) Run(ctx context.Context) error {
	a.printf("Welcome to the word memory game\n")
	for {
		a.printf("1. New game\n2. Highscores\n3. Quit\n")
		choice, ok := a.prompt(">>> ")
		if !ok {
			a.printf("\nGoodbye.\n")
			return nil
		}
		switch strings.ToLower(choice) {
		case "1":
			if err := a.playAndRecord(ctx); err != nil {
				return err
			}
		case "2":
			a.showHighscores(ctx)
			a.pause()
		case "3", quitCommand:
			a.printf("Goodbye.\n")
			return nil
		default:
			a.printf("Invalid choice.\n")
		}
	}
}

func (a *App) playAndRecord(ctx context.Context) error {
	difficulty, ok := a.chooseDifficulty()
	if !ok {
		return nil
	}
	g, err := game.Setup(a.cfg, difficulty, a.pool, a.NewSource())
	if err != nil {
		if matcherrors.KindOf(err) == matcherrors.KindSetup {
			a.printf("Cannot start a game: %v\n", err)
			return nil
		}
		return err
	}

	if err := a.play(g); err != nil {
		return err
	}
	if !g.IsFinished() {
		a.printf("Quitting game...\n")
	}

	name := a.askUserName()
	rec := score.NewRecord(score.Result{
		UserName:   name,
		Moves:      g.Moves(),
		Elapsed:    g.Elapsed(),
		Difficulty: g.Difficulty(),
		Finished:   g.IsFinished(),
		Seed:       g.Seed(),
	}, a.Now())
	if err := a.ledger.Append(ctx, rec); err != nil {
		slog.Error("score not saved", "tag", "cli", "err", err)
		a.printf("Could not save the score: %v\n", err)
	}
	a.showResult(ctx, rec)
	a.pause()
	return nil
}

// play runs the turn loop. It returns early, without error, when the player quits.
func (a *App) play(g *game.Game) error {
	for !g.IsFinished() {
		a.printf("%s\n", g.Board())
		for g.State() != game.Resolving {
			line, ok := a.prompt(fmt.Sprintf("Pick %d: ", len(g.CurrentSelection())+1))
			if !ok || strings.EqualFold(line, quitCommand) {
				return nil
			}
			if err := a.flipLine(g, line); err != nil {
				if !matcherrors.Recoverable(err) {
					return err
				}
				a.printf("%v, [%s] to quit\n", err, quitCommand)
				continue
			}
			if g.State() == game.WaitingSecondPick {
				a.printf("%s\n", g.Board())
			}
		}

		a.printf("%s\n", g.Board())
		a.pause()

		res, err := g.Resolve()
		if err != nil {
			return err
		}
		if res.Matched {
			a.printf("Match! %d of %d pairs found.\n", g.MatchedPairs(), g.Board().Size()*g.Board().Size()/2)
		} else {
			a.printf("No match.\n")
		}
	}
	return nil
}

// flipLine flips the coordinates on one input line, stopping once two cards are up.
func (a *App) flipLine(g *game.Game, line string) error {
	positions, err := g.Board().ParseCoordList(line)
	if err != nil {
		return err
	}
	for _, p := range positions {
		if g.State() == game.Resolving {
			break
		}
		if err := g.Flip(p.Row, p.Col); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) chooseDifficulty() (string, bool) {
	for {
		a.printf("Choose difficulty:\n")
		for _, tag := range a.cfg.DifficultyTags() {
			size := a.cfg.Difficulties[tag]
			a.printf(" - %s (%dx%d)\n", tag, size, size)
		}
		choice, ok := a.prompt(">>> ")
		if !ok {
			return "", false
		}
		choice = strings.ToLower(choice)
		if _, err := a.cfg.BoardSize(choice); err == nil {
			return choice, true
		}
		a.printf("Invalid difficulty.\n")
	}
}

func (a *App) askUserName() string {
	max := min(a.cfg.MaxNameLength, score.MaxNameLength)
	for {
		name, ok := a.prompt("Enter a name for the highscore list (Enter to stay anonymous): ")
		if !ok || name == "" {
			return score.DefaultName
		}
		if len([]rune(name)) <= max {
			return name
		}
		a.printf("The name can be at most %d characters, try again.\n", max)
	}
}

func (a *App) showResult(ctx context.Context, rec score.Record) {
	if !rec.Finished {
		a.printf("\nThe game was abandoned before it was finished.\n")
		a.printf("Moves: %d\nTime: %.2f seconds\n", rec.Moves, rec.Time)
		return
	}
	a.printf("\nCongratulations! You finished the game!\n")
	a.printf("Moves: %d\nTime: %.2f seconds\n", rec.Moves, rec.Time)

	ranked, err := a.ledger.TopByDifficulty(ctx, rec.Difficulty, 0)
	if err != nil {
		slog.Warn("ranking unavailable", "tag", "cli", "err", err)
		return
	}
	a.printf("You placed %d on the '%s' highscore list.\n", score.Placement(ranked, rec.GameID), rec.Difficulty)
}

func (a *App) showHighscores(ctx context.Context) {
	a.printf("\n--- Highscores ---\n\n")
	a.printf("%-*s%-*s%*s%*s%*s\n",
		dateWidth, "Date", nameWidth, "Name", movesWidth, "Moves", timeWidth, "Time (s)", placeWidth, "Place")

	for _, difficulty := range a.cfg.DifficultyTags() {
		a.printf("\n%s\n", center(strings.ToUpper(difficulty), tableWidth, '-'))

		ranked, err := a.ledger.TopByDifficulty(ctx, difficulty, 0)
		if err != nil {
			if errors.Is(err, matcherrors.ErrCorruptStore) {
				a.printf("(score file is corrupt)\n")
				return
			}
			a.printf("(unavailable: %v)\n", err)
			continue
		}
		if len(ranked) == 0 {
			a.printf("(no results)\n")
			continue
		}
		for i, r := range ranked {
			date, _, _ := strings.Cut(r.Timestamp, " ")
			a.printf("%-*s%-*s%*d%*.2f%*d\n",
				dateWidth, date, nameWidth, r.UserName, movesWidth, r.Moves, timeWidth, r.Time, placeWidth, i+1)
		}
	}
	a.printf("\n")
}

// center pads s on both sides with fill up to width.
func center(s string, width int, fill rune) string {
	n := width - len([]rune(s))
	if n <= 0 {
		return s
	}
	left := n / 2
	return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), n-left)
}

// prompt prints p and reads one trimmed line. ok is false once input is exhausted.
func (a *App) prompt(p string) (line string, ok bool) {
	a.printf("%s", p)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *App) pause() {
	a.prompt("Press [Enter] to continue...")
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
