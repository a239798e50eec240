package entity

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
)

const GridSize = 10

// Cell - the owner-side state of one grid square. The opponent view
// additionally uses CellUnknown, produced by Project.
type Cell string

const (
	CellShipHidden  Cell = "shipHidden"
	CellShipHit     Cell = "shipHit"
	CellWaterHidden Cell = "waterHidden"
	CellWaterHit    Cell = "waterHit"
	CellUnknown     Cell = "unknown"
)

type GuessOutcome string

const (
	OutcomeHit    GuessOutcome = "hit"
	OutcomeMiss   GuessOutcome = "miss"
	OutcomeRepeat GuessOutcome = "alreadyGuessed"
)

var (
	ErrShipPlacement = errors.New("could not place all ships on the grid")

	// ShipLengths - the fleet placed on every generated grid.
	ShipLengths = []int{5, 4, 3, 3, 2}
)

// maxPlacementAttempts bounds the random redraw loop. 25 of 100 cells
// end up occupied, so collisions are rare and the cap is generous.
const maxPlacementAttempts = 1000

type Grid [GridSize][GridSize]Cell

// GenerateGrid - produces a grid of hidden water with the fleet placed
// at random positions. Each ship gets a random orientation and a random
// top-left coordinate that keeps it on the grid; a draw that collides
// with an already placed ship is simply redrawn.
func GenerateGrid() (Grid, error) {
	var grid Grid
	for row := range grid {
		for col := range grid[row] {
			grid[row][col] = CellWaterHidden
		}
	}

	attempts := 0
	for _, shipLen := range ShipLengths {
		for {
			attempts++
			if attempts > maxPlacementAttempts {
				return Grid{}, fmt.Errorf("%w: gave up after %d attempts", ErrShipPlacement, maxPlacementAttempts)
			}

			if grid.placeShip(shipLen) {
				break
			}
		}
	}

	return grid, nil
}

// placeShip - tries one random placement, returns false on collision.
func (that *Grid) placeShip(shipLen int) bool {
	isHoriz := rand.Intn(2) == 0 //nolint: gosec // it's ok

	rowStep, colStep := 1, 0
	row := rand.Intn(GridSize - shipLen + 1) //nolint: gosec // it's ok
	col := rand.Intn(GridSize)               //nolint: gosec // it's ok
	if isHoriz {
		rowStep, colStep = 0, 1
		row = rand.Intn(GridSize)               //nolint: gosec // it's ok
		col = rand.Intn(GridSize - shipLen + 1) //nolint: gosec // it's ok
	}

	for i := 0; i < shipLen; i++ {
		if that[row+rowStep*i][col+colStep*i] != CellWaterHidden {
			return false
		}
	}

	for i := 0; i < shipLen; i++ {
		that[row+rowStep*i][col+colStep*i] = CellShipHidden
	}

	return true
}

// ApplyGuess - reveals one cell. Guessing an already revealed cell is
// not an error: the grid is left untouched and OutcomeRepeat reported,
// so a client re-sending after a dropped acknowledgment stays harmless.
func (that *Grid) ApplyGuess(row, col int) (GuessOutcome, error) {
	if row < 0 || row >= GridSize || col < 0 || col >= GridSize {
		return "", fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidCell, row, col)
	}

	switch that[row][col] {
	case CellShipHit, CellWaterHit:
		return OutcomeRepeat, nil
	case CellShipHidden:
		that[row][col] = CellShipHit
		return OutcomeHit, nil
	case CellWaterHidden:
		that[row][col] = CellWaterHit
		return OutcomeMiss, nil
	default:
		return "", fmt.Errorf("%w: unexpected cell %q", apperror.ErrInvalidCell, that[row][col])
	}
}

// FullyRevealed - reports whether every ship cell has been hit, which
// is the losing condition for the grid's owner.
func (that *Grid) FullyRevealed() bool {
	for row := range that {
		for col := range that[row] {
			if that[row][col] == CellShipHidden {
				return false
			}
		}
	}

	return true
}

// Project - the view of this grid that may leave the server: hidden
// cells collapse to CellUnknown, hits pass through unchanged. The
// collapse is deliberately lossy so un-hit ship locations never reach
// the opponent.
func (that *Grid) Project() Grid {
	var projected Grid
	for row := range that {
		for col := range that[row] {
			switch that[row][col] {
			case CellShipHit, CellWaterHit:
				projected[row][col] = that[row][col]
			default:
				projected[row][col] = CellUnknown
			}
		}
	}

	return projected
}
