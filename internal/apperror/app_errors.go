package apperror

import "errors"

var (
	ErrMissingUsername = errors.New("username is required")
	ErrMissingGameID   = errors.New("game id is required")
	ErrJoinForbidden   = errors.New("game is already being used by others")
	ErrNoOpponent      = errors.New("still waiting on an opponent")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrInvalidCell     = errors.New("cell is outside the grid")
)
