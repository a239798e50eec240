package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

var ErrGameNotFound = errors.New("game not found")

// GridSide - which grid column a guess write is scoped to. Scoping the
// UPDATE to one column keeps a concurrent write to the other side from
// being clobbered.
type GridSide string

const (
	GridSideA GridSide = "grid_a"
	GridSideB GridSide = "grid_b"
)

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	SetSecondPlayer(ctx context.Context, id, username, turn string) (bool, error)
	UpdateGridAndTurn(ctx context.Context, id string, side GridSide, grid entity.Grid, prevTurn, turn, victor string) (bool, error)
	ListOpenForUser(ctx context.Context, username string) ([]entity.GameSummary, error)
}

type dbGame struct {
	conn *sql.DB
}

func NewGameRepository(conn *sql.DB) GameRepository {
	return &dbGame{
		conn: conn,
	}
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	gridA, err := json.Marshal(game.GridA)
	if err != nil {
		return fmt.Errorf("could not marshal grid a: %w", err)
	}

	gridB, err := json.Marshal(game.GridB)
	if err != nil {
		return fmt.Errorf("could not marshal grid b: %w", err)
	}

	query := `INSERT INTO games (id, player_a, grid_a, grid_b) VALUES (?, ?, ?, ?)`

	_, err = that.conn.ExecContext(ctx, query, game.ID, game.PlayerA, string(gridA), string(gridB))
	if err != nil {
		return fmt.Errorf("can't save game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	query := `SELECT id, player_a, player_b, grid_a, grid_b, turn, victor FROM games WHERE id = ?`

	var (
		game                  entity.Game
		playerB, turn, victor sql.NullString
		rawGridA, rawGridB    string
	)

	err := that.conn.QueryRowContext(ctx, query, id).
		Scan(&game.ID, &game.PlayerA, &playerB, &rawGridA, &rawGridB, &turn, &victor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find game: %w", err)
	}

	game.PlayerB = playerB.String
	game.Turn = turn.String
	game.Victor = victor.String

	if err = json.Unmarshal([]byte(rawGridA), &game.GridA); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grid a: %w", err)
	}
	if err = json.Unmarshal([]byte(rawGridB), &game.GridB); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grid b: %w", err)
	}

	return &game, nil
}

// SetSecondPlayer - the single concurrency-critical write: claims the
// open B slot and assigns the first turn, but only while the slot is
// still open. Reports whether the claim applied; when two users race,
// at most one sees true and the loser never overwrites the winner.
func (that *dbGame) SetSecondPlayer(ctx context.Context, id, username, turn string) (bool, error) {
	query := `UPDATE games SET player_b = ?, turn = ? WHERE id = ? AND player_b IS NULL`

	result, err := that.conn.ExecContext(ctx, query, username, turn, id)
	if err != nil {
		return false, fmt.Errorf("can't set second player: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("can't read affected rows: %w", err)
	}

	return affected == 1, nil
}

// UpdateGridAndTurn - persists the guessed-at grid together with the
// turn and victor in one write. The update is conditioned on the turn
// and victor values read before the guess was applied, so a concurrent
// guess that got there first makes this one report false instead of
// silently clobbering it.
func (that *dbGame) UpdateGridAndTurn(ctx context.Context, id string, side GridSide, grid entity.Grid, prevTurn, turn, victor string) (bool, error) {
	rawGrid, err := json.Marshal(grid)
	if err != nil {
		return false, fmt.Errorf("could not marshal grid: %w", err)
	}

	var query string
	switch side {
	case GridSideA:
		query = `UPDATE games SET grid_a = ?, turn = ?, victor = ? WHERE id = ? AND turn = ? AND victor IS NULL`
	case GridSideB:
		query = `UPDATE games SET grid_b = ?, turn = ?, victor = ? WHERE id = ? AND turn = ? AND victor IS NULL`
	default:
		return false, fmt.Errorf("unknown grid side: %q", side)
	}

	result, err := that.conn.ExecContext(ctx, query, string(rawGrid), nullString(turn), nullString(victor), id, prevTurn)
	if err != nil {
		return false, fmt.Errorf("can't update game: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("can't read affected rows: %w", err)
	}

	return affected == 1, nil
}

func (that *dbGame) ListOpenForUser(ctx context.Context, username string) ([]entity.GameSummary, error) {
	query := `SELECT id, player_a, player_b, turn FROM games
		WHERE victor IS NULL AND (player_a = ? OR player_b = ? OR player_b IS NULL)`

	rows, err := that.conn.QueryContext(ctx, query, username, username)
	if err != nil {
		return nil, fmt.Errorf("can't list games: %w", err)
	}
	defer rows.Close()

	var summaries []entity.GameSummary
	for rows.Next() {
		var (
			summary       entity.GameSummary
			playerB, turn sql.NullString
		)

		if err = rows.Scan(&summary.ID, &summary.PlayerA, &playerB, &turn); err != nil {
			return nil, fmt.Errorf("can't scan game row: %w", err)
		}

		summary.PlayerB = playerB.String
		summary.Turn = turn.String
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read game rows: %w", err)
	}

	return summaries, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
