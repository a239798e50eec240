package rest

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type gameListItem struct {
	ID      string   `json:"id"`
	Players []string `json:"players"`
	Turn    string   `json:"turn,omitempty"`
}

type handlers struct {
	logger *slog.Logger
	games  gameService
}

func newHandlers(logger *slog.Logger, games gameService) *handlers {
	return &handlers{
		logger: logger,
		games:  games,
	}
}

func (that *handlers) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// ListGames - open games the user participates in or could still join.
func (that *handlers) ListGames(c *gin.Context) {
	log := that.logger.With("method", "ListGames")

	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	summaries, err := that.games.ListOpenGames(c.Request.Context(), username)
	if err != nil {
		log.Error("failed to list games", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list games"})
		return
	}

	items := make([]gameListItem, 0, len(summaries))
	for _, summary := range summaries {
		players := []string{summary.PlayerA}
		if summary.PlayerB != "" {
			players = append(players, summary.PlayerB)
		}

		items = append(items, gameListItem{
			ID:      summary.ID,
			Players: players,
			Turn:    summary.Turn,
		})
	}

	c.JSON(http.StatusOK, gin.H{"games": items})
}

// StartNewGame - creates a game with the caller as player A and both
// boards generated, and returns its id.
func (that *handlers) StartNewGame(c *gin.Context) {
	log := that.logger.With("method", "StartNewGame")

	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	game, err := that.games.CreateGame(c.Request.Context(), username)
	if err != nil {
		log.Error("failed to create game", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create game"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": game.ID})
}
