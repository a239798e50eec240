package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

// ConnectionRepository - the registry mapping ephemeral connection ids
// to (game, username) for fan-out. Entries are a routing aid only and
// never part of game truth; a game may have zero, one or two live
// entries, and one (game, username) pair may hold several entries when
// the player has multiple tabs open.
type ConnectionRepository interface {
	Attach(ctx context.Context, conn *entity.Connection) error
	Detach(ctx context.Context, connectionID string) error
	ListForGame(ctx context.Context, gameID string) ([]entity.Connection, error)
}

type dbConnection struct {
	client *redis.Client
}

func NewConnectionRepository(client *redis.Client) ConnectionRepository {
	return &dbConnection{
		client: client,
	}
}

func (that *dbConnection) Attach(ctx context.Context, conn *entity.Connection) error {
	connJSON, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("could not marshal connection: %w", err)
	}

	connKey := "connection:" + conn.ID
	if err = that.client.Set(ctx, connKey, connJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set connection: %w", err)
	}

	gameKey := "game-connections:" + conn.GameID
	if err = that.client.SAdd(ctx, gameKey, conn.ID).Err(); err != nil {
		return fmt.Errorf("failed to index connection: %w", err)
	}

	return nil
}

// Detach - removes the entry; a missing entry is not an error.
func (that *dbConnection) Detach(ctx context.Context, connectionID string) error {
	connKey := "connection:" + connectionID

	response, err := that.client.Get(ctx, connKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	var conn entity.Connection
	if err = json.Unmarshal([]byte(response), &conn); err != nil {
		return fmt.Errorf("failed to unmarshal connection: %w", err)
	}

	gameKey := "game-connections:" + conn.GameID
	if err = that.client.SRem(ctx, gameKey, connectionID).Err(); err != nil {
		return fmt.Errorf("failed to unindex connection: %w", err)
	}

	if err = that.client.Del(ctx, connKey).Err(); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	return nil
}

func (that *dbConnection) ListForGame(ctx context.Context, gameID string) ([]entity.Connection, error) {
	gameKey := "game-connections:" + gameID

	ids, err := that.client.SMembers(ctx, gameKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	var connections []entity.Connection
	for _, id := range ids {
		response, err := that.client.Get(ctx, "connection:"+id).Result()
		if errors.Is(err, redis.Nil) {
			// index entry outlived its connection, skip it
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get connection: %w", err)
		}

		var conn entity.Connection
		if err = json.Unmarshal([]byte(response), &conn); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
		}

		connections = append(connections, conn)
	}

	return connections, nil
}
