package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

type gameService interface {
	CreateGame(ctx context.Context, username string) (*entity.Game, error)
	ListOpenGames(ctx context.Context, username string) ([]entity.GameSummary, error)
}

// Start - serves the stateless query surface: list open games for a
// username and start a new game. Everything stateful goes over the
// WebSocket server instead.
func Start(ctx context.Context, logger *slog.Logger, games gameService, port string) error {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	h := newHandlers(logger, games)
	router.GET("/ping", h.Ping)
	router.GET("/list-games", h.ListGames)
	router.GET("/start-new-game", h.StartNewGame)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
