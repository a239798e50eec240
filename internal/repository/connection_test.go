package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/testing/suite"
)

func TestConnectionRepository_AttachAndList(t *testing.T) {
	ctx, st := suite.New(t)

	connRepo := NewConnectionRepository(st.Storage)

	// Given: two connections for one game, one for another
	require.NoError(t, connRepo.Attach(ctx, &entity.Connection{ID: "c1", GameID: "g1", Username: "alice"}))
	require.NoError(t, connRepo.Attach(ctx, &entity.Connection{ID: "c2", GameID: "g1", Username: "bob"}))
	require.NoError(t, connRepo.Attach(ctx, &entity.Connection{ID: "c3", GameID: "g2", Username: "carol"}))

	// When: listing connections for the first game
	connections, err := connRepo.ListForGame(ctx, "g1")

	// Then: both entries come back, the other game's does not
	require.NoError(t, err)
	require.Len(t, connections, 2)

	usernames := map[string]string{}
	for _, conn := range connections {
		usernames[conn.ID] = conn.Username
	}
	assert.Equal(t, map[string]string{"c1": "alice", "c2": "bob"}, usernames)
}

func TestConnectionRepository_MultipleTabs(t *testing.T) {
	ctx, st := suite.New(t)

	connRepo := NewConnectionRepository(st.Storage)

	// Given: the same user attached twice to the same game
	require.NoError(t, connRepo.Attach(ctx, &entity.Connection{ID: "c1", GameID: "g1", Username: "alice"}))
	require.NoError(t, connRepo.Attach(ctx, &entity.Connection{ID: "c2", GameID: "g1", Username: "alice"}))

	connections, err := connRepo.ListForGame(ctx, "g1")

	// Then: both entries survive, duplicates are not collapsed
	require.NoError(t, err)
	assert.Len(t, connections, 2)
}

func TestConnectionRepository_Detach(t *testing.T) {
	t.Run("Removes the entry from fan-out", func(t *testing.T) {
		ctx, st := suite.New(t)

		connRepo := NewConnectionRepository(st.Storage)

		require.NoError(t, connRepo.Attach(ctx, &entity.Connection{ID: "c1", GameID: "g1", Username: "alice"}))
		require.NoError(t, connRepo.Attach(ctx, &entity.Connection{ID: "c2", GameID: "g1", Username: "bob"}))

		// When: one connection detaches
		require.NoError(t, connRepo.Detach(ctx, "c1"))

		// Then: only the other one remains
		connections, err := connRepo.ListForGame(ctx, "g1")
		require.NoError(t, err)
		require.Len(t, connections, 1)
		assert.Equal(t, "c2", connections[0].ID)
	})

	t.Run("Detaching an absent connection is not an error", func(t *testing.T) {
		ctx, st := suite.New(t)

		connRepo := NewConnectionRepository(st.Storage)

		require.NoError(t, connRepo.Detach(ctx, "never-attached"))
	})
}

func TestConnectionRepository_ListEmptyGame(t *testing.T) {
	ctx, st := suite.New(t)

	connRepo := NewConnectionRepository(st.Storage)

	connections, err := connRepo.ListForGame(ctx, "no-such-game")

	require.NoError(t, err)
	assert.Empty(t, connections)
}
