package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/battleship-backend/internal/battleship"
)

const (
	messageTypeReady       = "ready"
	messageTypeSubmitGuess = "submitGuess"
	messageTypeUpdate      = "update"
)

// inboundMessage - the client-facing contract has exactly two inbound
// shapes; row and col are only meaningful for submitGuess.
type inboundMessage struct {
	Type string `json:"type"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

type updateMessage struct {
	Type  string            `json:"type"`
	State *battleship.State `json:"state"`
}

// client - one upgraded connection together with the identity claimed
// at the handshake. The mutex serializes writes: fan-outs triggered by
// both players can target the same connection concurrently and gorilla
// connections do not support concurrent writers.
type client struct {
	id       string
	gameID   string
	username string

	mu   sync.Mutex
	conn *websocket.Conn
}

func (that *client) send(message any) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn.WriteJSON(message)
}
