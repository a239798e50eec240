package entity

import "math/rand"

// Game - the single authoritative record of one battleship session.
// PlayerA is set at creation and never changes. PlayerB transitions
// exactly once from empty to a username, together with Turn, guarded
// by the repository's conditional write. Victor is permanent once set.
type Game struct {
	ID      string `json:"id"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b,omitempty"`
	GridA   Grid   `json:"grid_a"`
	GridB   Grid   `json:"grid_b"`
	Turn    string `json:"turn,omitempty"`
	Victor  string `json:"victor,omitempty"`
}

// GameSummary - the open-games listing row: participants and turn
// holder only, never grid contents.
type GameSummary struct {
	ID      string
	PlayerA string
	PlayerB string
	Turn    string
}

func NewGame(id, playerA string, gridA, gridB Grid) *Game {
	return &Game{
		ID:      id,
		PlayerA: playerA,
		GridA:   gridA,
		GridB:   gridB,
	}
}

func (that *Game) IsFinished() bool {
	return that.Victor != ""
}

func (that *Game) HasOpponent() bool {
	return that.PlayerB != ""
}

func (that *Game) IsParticipant(username string) bool {
	return that.PlayerA == username || (that.PlayerB != "" && that.PlayerB == username)
}

// Opponent - the other participant, or empty while the B slot is open.
func (that *Game) Opponent(username string) string {
	if that.PlayerA == username {
		return that.PlayerB
	}
	return that.PlayerA
}

// TargetGrid - the grid a guess by username lands on, which is always
// the opponent's board.
func (that *Game) TargetGrid(username string) *Grid {
	if that.PlayerA == username {
		return &that.GridB
	}
	return &that.GridA
}

func (that *Game) OwnGrid(username string) *Grid {
	if that.PlayerA == username {
		return &that.GridA
	}
	return &that.GridB
}

// PickStartingPlayer - the coin flip deciding who moves first once the
// second player has claimed the open slot.
func PickStartingPlayer(playerA, playerB string) string {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return playerA
	}
	return playerB
}
