package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/internal/repository"
)

type gameService interface {
	JoinGame(ctx context.Context, gameID, username string) (*entity.Game, bool, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	MakeGuess(ctx context.Context, gameID, username string, row, col int) (*entity.Game, entity.GuessOutcome, error)
}

type connectionRegistry interface {
	Attach(ctx context.Context, conn *entity.Connection) error
	Detach(ctx context.Context, connectionID string) error
	ListForGame(ctx context.Context, gameID string) ([]entity.Connection, error)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type Server struct {
	logger   *slog.Logger
	games    gameService
	registry connectionRegistry

	clientsMutex sync.RWMutex
	clients      map[string]*client

	handlers map[string]func(ctx context.Context, c *client, message *inboundMessage) error
}

func New(logger *slog.Logger, games gameService, registry connectionRegistry) *Server {
	server := &Server{
		logger:   logger,
		games:    games,
		registry: registry,

		clients:  make(map[string]*client),
		handlers: make(map[string]func(context.Context, *client, *inboundMessage) error),
	}

	server.handlers[messageTypeReady] = server.handleReady
	server.handlers[messageTypeSubmitGuess] = server.handleSubmitGuess

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
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

// handleConnection - the connect handshake carries (username, gameId)
// as query parameters. The join runs before the upgrade so a forbidden
// caller is refused with a plain HTTP status instead of a dead socket.
func (that *Server) handleConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleConnection")

	username := req.URL.Query().Get("username")
	gameID := req.URL.Query().Get("gameId")

	game, joined, err := that.games.JoinGame(ctx, gameID, username)
	switch {
	case errors.Is(err, apperror.ErrMissingUsername), errors.Is(err, apperror.ErrMissingGameID):
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, apperror.ErrJoinForbidden):
		http.Error(writer, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, repository.ErrGameNotFound):
		http.Error(writer, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		log.Error("failed to join game", "gameID", gameID, "error", err)
		http.Error(writer, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		id:       uuid.NewString(),
		gameID:   gameID,
		username: username,
		conn:     conn,
	}

	log = log.With("connectionID", c.id, "gameID", gameID, "username", username)

	if err = that.attach(ctx, c); err != nil {
		log.Error("failed to attach connection", "error", err)
		_ = conn.Close()
		return
	}

	defer that.detach(ctx, c)

	log.Info("connection established", "joined", joined)

	if joined {
		// reveal the second player to everyone already watching; the
		// joining connection gets its own state once it sends ready
		that.broadcast(ctx, game, c.id)
	}

	that.readMessages(ctx, c)
}

// readMessages - processes messages from one connection until it drops.
func (that *Server) readMessages(ctx context.Context, c *client) {
	log := that.logger.With("method", "readMessages", "connectionID", c.id)

	for {
		var message inboundMessage
		if err := c.conn.ReadJSON(&message); err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		handler, ok := that.handlers[message.Type]
		if !ok {
			log.Error("unknown message type", "type", message.Type)
			continue
		}

		if err := handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "type", message.Type, "error", err)
		}
	}
}

func (that *Server) attach(ctx context.Context, c *client) error {
	entry := &entity.Connection{
		ID:       c.id,
		GameID:   c.gameID,
		Username: c.username,
	}

	if err := that.registry.Attach(ctx, entry); err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}

	that.clientsMutex.Lock()
	that.clients[c.id] = c
	that.clientsMutex.Unlock()

	return nil
}

// detach - drops the routing entry. Disconnects never touch game
// state; the player may reattach later and resync with a ready.
func (that *Server) detach(ctx context.Context, c *client) {
	log := that.logger.With("method", "detach", "connectionID", c.id)

	that.clientsMutex.Lock()
	delete(that.clients, c.id)
	that.clientsMutex.Unlock()

	if err := that.registry.Detach(ctx, c.id); err != nil {
		log.Error("failed to deregister connection", "error", err)
	}

	_ = c.conn.Close()

	log.Info("connection closed")
}
