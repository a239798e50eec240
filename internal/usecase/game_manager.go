package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/internal/repository"
)

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	SetSecondPlayer(ctx context.Context, id, username, turn string) (bool, error)
	UpdateGridAndTurn(ctx context.Context, id string, side repository.GridSide, grid entity.Grid, prevTurn, turn, victor string) (bool, error)
	ListOpenForUser(ctx context.Context, username string) ([]entity.GameSummary, error)
}

// GameManager - the session engine. It owns every transition of a game
// record; nothing else writes game state. There is no in-process lock:
// the join claim and the guess write are both conditional writes in the
// repository, and everything else tolerates replays.
type GameManager struct {
	logger *slog.Logger
	games  gameRepo
}

func NewGameManager(logger *slog.Logger, games gameRepo) *GameManager {
	return &GameManager{
		logger: logger,
		games:  games,
	}
}

// CreateGame - generates both boards and writes a fresh record with
// the B slot, turn and victor all unset.
func (that *GameManager) CreateGame(ctx context.Context, username string) (*entity.Game, error) {
	if username == "" {
		return nil, apperror.ErrMissingUsername
	}

	gridA, err := entity.GenerateGrid()
	if err != nil {
		return nil, fmt.Errorf("failed to generate grid: %w", err)
	}

	gridB, err := entity.GenerateGrid()
	if err != nil {
		return nil, fmt.Errorf("failed to generate grid: %w", err)
	}

	game := entity.NewGame(uuid.NewString(), username, gridA, gridB)
	if err = that.games.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game created", "gameID", game.ID, "playerA", username)

	return game, nil
}

// JoinGame - attaches username to the game. A participant reconnecting
// gets the record back unchanged with joined=false. A newcomer may
// claim the open B slot, which also coin-flips the first turn; the
// claim is a conditional write, so of two racing newcomers exactly one
// succeeds and the other is turned away with ErrJoinForbidden.
func (that *GameManager) JoinGame(ctx context.Context, gameID, username string) (*entity.Game, bool, error) {
	log := that.logger.With("method", "JoinGame", "gameID", gameID)

	if username == "" {
		return nil, false, apperror.ErrMissingUsername
	}
	if gameID == "" {
		return nil, false, apperror.ErrMissingGameID
	}

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get game: %w", err)
	}

	if game.IsParticipant(username) {
		return game, false, nil
	}

	if game.HasOpponent() {
		return nil, false, fmt.Errorf("%w: game %s", apperror.ErrJoinForbidden, gameID)
	}

	turn := entity.PickStartingPlayer(game.PlayerA, username)

	claimed, err := that.games.SetSecondPlayer(ctx, gameID, username, turn)
	if err != nil {
		return nil, false, fmt.Errorf("failed to set second player: %w", err)
	}

	if !claimed {
		// lost the race for the open slot
		return nil, false, fmt.Errorf("%w: game %s", apperror.ErrJoinForbidden, gameID)
	}

	game, err = that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reread game: %w", err)
	}

	log.Info("second player joined", "playerB", username, "turn", game.Turn)

	return game, true, nil
}

// MakeGuess - applies one guess by username against the opponent's
// board. A guess when the game is terminal or it is not the caller's
// turn returns ErrNotYourTurn together with the current record so the
// caller can resend truth instead of failing hard. Guessing an already
// revealed cell is a pure no-op reported as OutcomeRepeat.
func (that *GameManager) MakeGuess(ctx context.Context, gameID, username string, row, col int) (*entity.Game, entity.GuessOutcome, error) {
	log := that.logger.With("method", "MakeGuess", "gameID", gameID)

	if username == "" {
		return nil, "", apperror.ErrMissingUsername
	}
	if gameID == "" {
		return nil, "", apperror.ErrMissingGameID
	}

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get game: %w", err)
	}

	if !game.HasOpponent() {
		return game, "", apperror.ErrNoOpponent
	}

	if game.IsFinished() || game.Turn != username {
		return game, "", apperror.ErrNotYourTurn
	}

	prevTurn := game.Turn
	targetGrid := game.TargetGrid(username)

	outcome, err := targetGrid.ApplyGuess(row, col)
	if err != nil {
		return nil, "", fmt.Errorf("failed to apply guess: %w", err)
	}

	if outcome == entity.OutcomeRepeat {
		return game, outcome, nil
	}

	if targetGrid.FullyRevealed() {
		game.Victor = username
		game.Turn = ""
	} else {
		game.Turn = game.Opponent(username)
	}

	side := repository.GridSideA
	if game.PlayerA == username {
		side = repository.GridSideB
	}

	applied, err := that.games.UpdateGridAndTurn(ctx, gameID, side, *targetGrid, prevTurn, game.Turn, game.Victor)
	if err != nil {
		return nil, "", fmt.Errorf("failed to update game: %w", err)
	}

	if !applied {
		// the record moved on under us, hand back current truth
		game, err = that.games.GetByID(ctx, gameID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to reread game: %w", err)
		}

		return game, "", apperror.ErrNotYourTurn
	}

	if game.IsFinished() {
		log.Info("game won", "victor", game.Victor)
	}

	return game, outcome, nil
}

// GetGame - the current record, read-only; used by the protocol layer
// to answer ready requests with a fresh projection.
func (that *GameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	if gameID == "" {
		return nil, apperror.ErrMissingGameID
	}

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// ListOpenGames - games with no victor yet where username already
// participates or could still take the open B slot.
func (that *GameManager) ListOpenGames(ctx context.Context, username string) ([]entity.GameSummary, error) {
	if username == "" {
		return nil, apperror.ErrMissingUsername
	}

	summaries, err := that.games.ListOpenForUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	return summaries, nil
}
