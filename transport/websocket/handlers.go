package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/battleship"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

// handleReady - replies with a fresh projection for the caller only.
func (that *Server) handleReady(ctx context.Context, c *client, _ *inboundMessage) error {
	game, err := that.games.GetGame(ctx, c.gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	return that.sendUpdate(c, game)
}

// handleSubmitGuess - applies the guess and fans the new state out to
// every connection of the game. A stale or duplicate guess is answered
// with the caller's own current projection and nothing else: the
// client gates the button on its side, so a late duplicate click must
// resync the sender rather than fail the game.
func (that *Server) handleSubmitGuess(ctx context.Context, c *client, message *inboundMessage) error {
	log := that.logger.With("method", "handleSubmitGuess", "connectionID", c.id)

	game, outcome, err := that.games.MakeGuess(ctx, c.gameID, c.username, message.Row, message.Col)
	if errors.Is(err, apperror.ErrNotYourTurn) || errors.Is(err, apperror.ErrNoOpponent) {
		log.Info("stale guess, resending state", "reason", err)
		return that.sendUpdate(c, game)
	}
	if err != nil {
		return fmt.Errorf("failed to make guess: %w", err)
	}

	if outcome == entity.OutcomeRepeat {
		log.Info("cell already revealed, resending state")
		return that.sendUpdate(c, game)
	}

	that.broadcast(ctx, game, "")

	return nil
}

// broadcast - sends each registered connection of the game its own
// projection, skipping exceptID. Delivery is best effort: a failed
// send is logged and abandoned, the record is already written and the
// viewer resyncs with its next ready.
func (that *Server) broadcast(ctx context.Context, game *entity.Game, exceptID string) {
	log := that.logger.With("method", "broadcast", "gameID", game.ID)

	entries, err := that.registry.ListForGame(ctx, game.ID)
	if err != nil {
		log.Error("failed to list connections", "error", err)
		return
	}

	for _, entry := range entries {
		if entry.ID == exceptID {
			continue
		}

		that.clientsMutex.RLock()
		c, ok := that.clients[entry.ID]
		that.clientsMutex.RUnlock()

		if !ok {
			log.Warn("no local client for connection", "connectionID", entry.ID)
			continue
		}

		if err = that.sendUpdate(c, game); err != nil {
			log.Error("failed to send game update", "connectionID", entry.ID, "error", err)
		}
	}
}

func (that *Server) sendUpdate(c *client, game *entity.Game) error {
	message := updateMessage{
		Type:  messageTypeUpdate,
		State: battleship.StateFor(game, c.username),
	}

	if err := c.send(message); err != nil {
		return fmt.Errorf("failed to send update: %w", err)
	}

	return nil
}
