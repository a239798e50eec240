package battleship

import "github.com/rocketscienceinc/battleship-backend/internal/entity"

const (
	StatusNeedOpponent = "needOpponent"
	StatusUserTurn     = "userTurn"
	StatusOpponentTurn = "opponentTurn"
	StatusUserWin      = "userWin"
	StatusOpponentWin  = "opponentWin"
)

// State - the per-viewer rendering of a game. It is computed from the
// record on every request and never persisted: the stored Game stays
// the only source of truth. PlayerState is the viewer's own board,
// OpponentState is the other board with un-hit cells obscured.
type State struct {
	Opponent      string      `json:"opponent,omitempty"`
	Status        string      `json:"status"`
	PlayerState   entity.Grid `json:"playerState"`
	OpponentState entity.Grid `json:"opponentState"`
}

// StateFor - derives the game as seen by username. Status precedence:
// a set victor wins over everything, then a missing opponent, then the
// turn holder.
func StateFor(game *entity.Game, username string) *State {
	return &State{
		Opponent:      game.Opponent(username),
		Status:        statusFor(game, username),
		PlayerState:   *game.OwnGrid(username),
		OpponentState: game.TargetGrid(username).Project(),
	}
}

func statusFor(game *entity.Game, username string) string {
	switch {
	case game.Victor == username:
		return StatusUserWin
	case game.IsFinished():
		return StatusOpponentWin
	case !game.HasOpponent():
		return StatusNeedOpponent
	case game.Turn == username:
		return StatusUserTurn
	default:
		return StatusOpponentTurn
	}
}
