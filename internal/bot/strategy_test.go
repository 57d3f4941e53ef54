package bot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

func newSeededStrategy() *Strategy {
	return New(rand.New(rand.NewSource(1))) //nolint:gosec // deterministic test source
}

func TestStrategy_SelectMove(t *testing.T) {
	t.Run("Takes its own winning move over a block", func(t *testing.T) {
		// Given: O can win at 2 while X threatens to win at 5
		board := [9]string{
			entity.PlayerO, entity.PlayerO, "",
			entity.PlayerX, entity.PlayerX, "",
			"", "", "",
		}

		// When: O selects a move
		cell, err := newSeededStrategy().SelectMove(board, entity.PlayerO)

		// Then: it completes its own line instead of blocking
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})

	t.Run("Blocks the opponent's immediate win before taking the center", func(t *testing.T) {
		// Given: X holds 0 and 1, O holds only the center, O to move
		board := [9]string{
			entity.PlayerX, entity.PlayerX, "",
			"", entity.PlayerO, "",
			"", "", "",
		}

		// When: O selects a move
		cell, err := newSeededStrategy().SelectMove(board, entity.PlayerO)

		// Then: it blocks at 2 rather than picking a corner or any cell
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})

	t.Run("Takes the center when no win or block exists", func(t *testing.T) {
		// Given: X opened in a corner
		board := [9]string{
			entity.PlayerX, "", "",
			"", "", "",
			"", "", "",
		}

		// When: O selects a move
		cell, err := newSeededStrategy().SelectMove(board, entity.PlayerO)

		// Then: it takes the center
		require.NoError(t, err)
		assert.Equal(t, 4, cell)
	})

	t.Run("Takes an empty corner when the center is occupied", func(t *testing.T) {
		// Given: only the center is taken
		board := [9]string{
			"", "", "",
			"", entity.PlayerX, "",
			"", "", "",
		}

		// When: O selects a move
		cell, err := newSeededStrategy().SelectMove(board, entity.PlayerO)

		// Then: the pick is one of the corners
		require.NoError(t, err)
		assert.Contains(t, []int{0, 2, 6, 8}, cell)
	})

	t.Run("Falls back to any remaining cell when corners are gone", func(t *testing.T) {
		// Given: center and every corner taken, no win or block open,
		// only the edges 1 and 7 free
		board := [9]string{
			entity.PlayerX, "", entity.PlayerO,
			entity.PlayerO, entity.PlayerX, entity.PlayerX,
			entity.PlayerX, "", entity.PlayerO,
		}

		// When: O selects a move
		cell, err := newSeededStrategy().SelectMove(board, entity.PlayerO)

		// Then: the pick is one of the open edges
		require.NoError(t, err)
		assert.Contains(t, []int{1, 7}, cell)
	})

	t.Run("Error when the board is full", func(t *testing.T) {
		// Given: a full tie board
		board := [9]string{
			entity.PlayerX, entity.PlayerO, entity.PlayerX,
			entity.PlayerO, entity.PlayerX, entity.PlayerO,
			entity.PlayerO, entity.PlayerX, entity.PlayerO,
		}

		// When: the strategy is asked for a move
		_, err := newSeededStrategy().SelectMove(board, entity.PlayerO)

		// Then: it reports no available move
		require.ErrorIs(t, err, apperror.ErrNoAvailableMove)
	})

	t.Run("Win and block scans prefer the lowest cell index", func(t *testing.T) {
		// Given: O can win at 2 (row 0-1-2) and at 6 (column 0-3-6)
		board := [9]string{
			entity.PlayerO, entity.PlayerO, "",
			entity.PlayerO, entity.PlayerX, "",
			"", "", entity.PlayerX,
		}

		// When: O selects a move
		cell, err := newSeededStrategy().SelectMove(board, entity.PlayerO)

		// Then: the ascending scan settles on cell 2
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})
}
