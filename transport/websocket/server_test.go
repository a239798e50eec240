package websocket

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/battleship"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/internal/repository"
)

// fakeGameService holds one game in memory and reproduces the session
// engine's transitions deterministically: the joining player always
// gets the first turn.
type fakeGameService struct {
	mu   sync.Mutex
	game *entity.Game
}

func (that *fakeGameService) JoinGame(_ context.Context, gameID, username string) (*entity.Game, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if username == "" {
		return nil, false, apperror.ErrMissingUsername
	}
	if gameID == "" {
		return nil, false, apperror.ErrMissingGameID
	}
	if gameID != that.game.ID {
		return nil, false, repository.ErrGameNotFound
	}

	if that.game.IsParticipant(username) {
		copied := *that.game
		return &copied, false, nil
	}

	if that.game.HasOpponent() {
		return nil, false, apperror.ErrJoinForbidden
	}

	that.game.PlayerB = username
	that.game.Turn = username

	copied := *that.game
	return &copied, true, nil
}

func (that *fakeGameService) GetGame(_ context.Context, gameID string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if gameID != that.game.ID {
		return nil, repository.ErrGameNotFound
	}

	copied := *that.game
	return &copied, nil
}

func (that *fakeGameService) MakeGuess(_ context.Context, gameID, username string, row, col int) (*entity.Game, entity.GuessOutcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if gameID != that.game.ID {
		return nil, "", repository.ErrGameNotFound
	}

	copied := *that.game
	if !that.game.HasOpponent() {
		return &copied, "", apperror.ErrNoOpponent
	}
	if that.game.IsFinished() || that.game.Turn != username {
		return &copied, "", apperror.ErrNotYourTurn
	}

	outcome, err := that.game.TargetGrid(username).ApplyGuess(row, col)
	if err != nil {
		return nil, "", err
	}

	if outcome != entity.OutcomeRepeat {
		if that.game.TargetGrid(username).FullyRevealed() {
			that.game.Victor = username
			that.game.Turn = ""
		} else {
			that.game.Turn = that.game.Opponent(username)
		}
	}

	copied = *that.game
	return &copied, outcome, nil
}

type fakeRegistry struct {
	mu      sync.Mutex
	entries map[string]entity.Connection
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{entries: make(map[string]entity.Connection)}
}

func (that *fakeRegistry) Attach(_ context.Context, conn *entity.Connection) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.entries[conn.ID] = *conn
	return nil
}

func (that *fakeRegistry) Detach(_ context.Context, connectionID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	delete(that.entries, connectionID)
	return nil
}

func (that *fakeRegistry) ListForGame(_ context.Context, gameID string) ([]entity.Connection, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var connections []entity.Connection
	for _, conn := range that.entries {
		if conn.GameID == gameID {
			connections = append(connections, conn)
		}
	}
	return connections, nil
}

func waterGrid() entity.Grid {
	var grid entity.Grid
	for row := range grid {
		for col := range grid[row] {
			grid[row][col] = entity.CellWaterHidden
		}
	}
	return grid
}

// newTestServer serves the websocket endpoint over httptest with a
// game owned by alice carrying two ship cells on each board.
func newTestServer(t *testing.T) (*httptest.Server, *fakeGameService) {
	t.Helper()

	gridA, gridB := waterGrid(), waterGrid()
	gridA[0][0], gridA[0][1] = entity.CellShipHidden, entity.CellShipHidden
	gridB[0][0], gridB[0][1] = entity.CellShipHidden, entity.CellShipHidden

	games := &fakeGameService{game: entity.NewGame("g1", "alice", gridA, gridB)}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := New(logger, games, newFakeRegistry())

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.handleConnection(context.Background(), w, r)
	}))
	t.Cleanup(ts.Close)

	return ts, games
}

func dial(t *testing.T, ts *httptest.Server, username, gameID string) *websocket.Conn {
	t.Helper()

	url := fmt.Sprintf("%s?username=%s&gameId=%s", strings.Replace(ts.URL, "http", "ws", 1), username, gameID)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) *battleship.State {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var message struct {
		Type  string           `json:"type"`
		State battleship.State `json:"state"`
	}
	require.NoError(t, conn.ReadJSON(&message))
	require.Equal(t, messageTypeUpdate, message.Type)

	return &message.State
}

func TestServer_Handshake(t *testing.T) {
	t.Run("Missing parameters are refused before the upgrade", func(t *testing.T) {
		ts, _ := newTestServer(t)

		url := strings.Replace(ts.URL, "http", "ws", 1) + "?gameId=g1"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil) //nolint: bodyclose // closed below

		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Unknown game is refused with 404", func(t *testing.T) {
		ts, _ := newTestServer(t)

		url := strings.Replace(ts.URL, "http", "ws", 1) + "?username=alice&gameId=missing"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil) //nolint: bodyclose // closed below

		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Third party is refused once the game is full", func(t *testing.T) {
		ts, _ := newTestServer(t)

		dial(t, ts, "alice", "g1")
		dial(t, ts, "bob", "g1")

		url := strings.Replace(ts.URL, "http", "ws", 1) + "?username=mallory&gameId=g1"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil) //nolint: bodyclose // closed below

		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestServer_Ready(t *testing.T) {
	t.Run("Replies with the caller's projection only", func(t *testing.T) {
		ts, _ := newTestServer(t)

		conn := dial(t, ts, "alice", "g1")

		require.NoError(t, conn.WriteJSON(map[string]string{"type": "ready"}))

		state := readUpdate(t, conn)
		assert.Equal(t, battleship.StatusNeedOpponent, state.Status)
		assert.Empty(t, state.Opponent)
		assert.Equal(t, entity.CellShipHidden, state.PlayerState[0][0])
	})
}

func TestServer_JoinBroadcast(t *testing.T) {
	t.Run("Second player joining reveals the opponent to the first", func(t *testing.T) {
		ts, _ := newTestServer(t)

		// Given: alice attached and waiting
		aliceConn := dial(t, ts, "alice", "g1")

		// When: bob joins
		dial(t, ts, "bob", "g1")

		// Then: alice is pushed the reveal without asking
		state := readUpdate(t, aliceConn)
		assert.Equal(t, "bob", state.Opponent)
		assert.Equal(t, battleship.StatusOpponentTurn, state.Status)
	})
}

func TestServer_SubmitGuess(t *testing.T) {
	t.Run("Successful guess fans out per-viewer projections", func(t *testing.T) {
		ts, _ := newTestServer(t)

		aliceConn := dial(t, ts, "alice", "g1")
		bobConn := dial(t, ts, "bob", "g1")

		// drain the join reveal
		readUpdate(t, aliceConn)

		// When: bob, who holds the first turn, hits a ship on alice's board
		require.NoError(t, bobConn.WriteJSON(map[string]any{"type": "submitGuess", "row": 0, "col": 0}))

		// Then: bob sees the hit obscured-side, with the neighbouring ship cell still hidden
		bobState := readUpdate(t, bobConn)
		assert.Equal(t, battleship.StatusOpponentTurn, bobState.Status)
		assert.Equal(t, entity.CellShipHit, bobState.OpponentState[0][0])
		assert.Equal(t, entity.CellUnknown, bobState.OpponentState[0][1])

		// and alice sees the hit on her own unobscured board, now holding the turn
		aliceState := readUpdate(t, aliceConn)
		assert.Equal(t, battleship.StatusUserTurn, aliceState.Status)
		assert.Equal(t, entity.CellShipHit, aliceState.PlayerState[0][0])
		assert.Equal(t, entity.CellShipHidden, aliceState.PlayerState[0][1])
	})

	t.Run("Off-turn guess resyncs the sender only", func(t *testing.T) {
		ts, _ := newTestServer(t)

		aliceConn := dial(t, ts, "alice", "g1")
		bobConn := dial(t, ts, "bob", "g1")
		readUpdate(t, aliceConn)

		// When: alice guesses while bob holds the turn
		require.NoError(t, aliceConn.WriteJSON(map[string]any{"type": "submitGuess", "row": 5, "col": 5}))

		// Then: alice gets her current truth back
		state := readUpdate(t, aliceConn)
		assert.Equal(t, battleship.StatusOpponentTurn, state.Status)

		// and bob hears nothing
		require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
		var discard any
		assert.Error(t, bobConn.ReadJSON(&discard))
	})

	t.Run("Winning guess ends the game for both viewers", func(t *testing.T) {
		ts, games := newTestServer(t)

		aliceConn := dial(t, ts, "alice", "g1")
		bobConn := dial(t, ts, "bob", "g1")
		readUpdate(t, aliceConn)

		// Given: only one hidden ship cell left on alice's board
		games.mu.Lock()
		games.game.GridA[0][1] = entity.CellShipHit
		games.mu.Unlock()

		// When: bob hits the last one
		require.NoError(t, bobConn.WriteJSON(map[string]any{"type": "submitGuess", "row": 0, "col": 0}))

		// Then: bob wins, alice loses
		assert.Equal(t, battleship.StatusUserWin, readUpdate(t, bobConn).Status)
		assert.Equal(t, battleship.StatusOpponentWin, readUpdate(t, aliceConn).Status)
	})
}
