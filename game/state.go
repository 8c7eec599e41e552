package game

import "math"

// CardView is the client-facing representation of a card.
// Value is only included when the card is flipped or matched.
type CardView struct {
	Position string  `json:"position"`
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	Value    *string `json:"value,omitempty"`
	State    string  `json:"state"`
}

// GameStateMsg is the full session state sent to the player.
type GameStateMsg struct {
	Type         string     `json:"type"`
	GameID       string     `json:"gameId"`
	Difficulty   string     `json:"difficulty"`
	Size         int        `json:"size"`
	Seed         int64      `json:"seed"`
	Cards        []CardView `json:"cards"`
	Flipped      []string   `json:"flipped"`
	Phase        string     `json:"phase"`
	Moves        int        `json:"moves"`
	MatchedPairs int        `json:"matchedPairs"`
	ElapsedSec   float64    `json:"elapsedSec"`
}

// BuildCardViews constructs the client-facing card list in row-major order.
// Hidden cards do not expose their value.
func BuildCardViews(board *Board) []CardView {
	if board == nil || board.cells == nil {
		return []CardView{}
	}
	views := make([]CardView, 0, board.size*board.size)
	for r, row := range board.cells {
		for c, card := range row {
			cv := CardView{
				Position: FormatPosition(r, c),
				Row:      r,
				Col:      c,
				State:    card.State.String(),
			}
			if card.State != Hidden {
				v := card.Value
				cv.Value = &v
			}
			views = append(views, cv)
		}
	}
	return views
}

// BuildState returns the state view of g for the session gameID.
func (g *Game) BuildState(gameID string) GameStateMsg {
	flipped := make([]string, 0, 2)
	for _, p := range g.CurrentSelection() {
		flipped = append(flipped, p.String())
	}
	return GameStateMsg{
		Type:         "game_state",
		GameID:       gameID,
		Difficulty:   g.difficulty,
		Size:         g.size,
		Seed:         g.Seed(),
		Cards:        BuildCardViews(g.board),
		Flipped:      flipped,
		Phase:        g.state.String(),
		Moves:        g.moves,
		MatchedPairs: g.MatchedPairs(),
		ElapsedSec:   math.Round(g.Elapsed().Seconds()*100) / 100,
	}
}
