package entity

// Connection - one live attachment of a user to a game. Destroyed on
// disconnect; the game record is never touched by connection churn.
type Connection struct {
	ID       string `json:"id"`
	GameID   string `json:"game_id"`
	Username string `json:"username"`
}
