package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTally_Record(t *testing.T) {
	t.Run("Increments exactly one counter per result", func(t *testing.T) {
		// Given: an empty tally
		tally := &ScoreTally{}

		// When: recording a win for each side and a tie
		require.NoError(t, tally.Record(PlayerX))
		require.NoError(t, tally.Record(PlayerO))
		require.NoError(t, tally.Record(PlayerO))
		require.NoError(t, tally.Record(PlayerTie))

		// Then: each counter reflects its results only
		assert.Equal(t, &ScoreTally{WinsX: 1, WinsO: 2, Ties: 1}, tally)
	})

	t.Run("Rejects a non-terminal winner value", func(t *testing.T) {
		// Given: an empty tally
		tally := &ScoreTally{}

		// When: recording an empty winner
		err := tally.Record("")

		// Then: the tally stays untouched
		require.Error(t, err)
		assert.Equal(t, &ScoreTally{}, tally)
	})
}
