package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGame_Participants(t *testing.T) {
	t.Run("Player A is always a participant", func(t *testing.T) {
		game := &Game{PlayerA: "alice"}

		assert.True(t, game.IsParticipant("alice"))
		assert.False(t, game.IsParticipant("bob"))
	})

	t.Run("Empty username never matches an open B slot", func(t *testing.T) {
		game := &Game{PlayerA: "alice"}

		assert.False(t, game.IsParticipant(""))
	})

	t.Run("Opponent is empty while the B slot is open", func(t *testing.T) {
		game := &Game{PlayerA: "alice"}

		assert.Empty(t, game.Opponent("alice"))
		assert.False(t, game.HasOpponent())
	})

	t.Run("Opponent is the other participant once B joined", func(t *testing.T) {
		game := &Game{PlayerA: "alice", PlayerB: "bob"}

		assert.Equal(t, "bob", game.Opponent("alice"))
		assert.Equal(t, "alice", game.Opponent("bob"))
		assert.True(t, game.HasOpponent())
	})
}

func TestGame_TargetGrid(t *testing.T) {
	// Given: a game with distinguishable grids
	game := &Game{PlayerA: "alice", PlayerB: "bob"}
	game.GridA[0][0] = CellShipHidden
	game.GridB[0][0] = CellWaterHidden

	// Then: each player's guesses target the opponent's board only
	assert.Same(t, &game.GridB, game.TargetGrid("alice"))
	assert.Same(t, &game.GridA, game.TargetGrid("bob"))
	assert.Same(t, &game.GridA, game.OwnGrid("alice"))
	assert.Same(t, &game.GridB, game.OwnGrid("bob"))
}

func TestGame_IsFinished(t *testing.T) {
	assert.False(t, (&Game{}).IsFinished())
	assert.True(t, (&Game{Victor: "alice"}).IsFinished())
}

func TestPickStartingPlayer(t *testing.T) {
	// When: flipping the coin repeatedly
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[PickStartingPlayer("alice", "bob")] = true
	}

	// Then: only the two participants ever come up
	require.Subset(t, []string{"alice", "bob"}, keys(seen))
}

func keys(m map[string]bool) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
