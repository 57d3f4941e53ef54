package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/testing/suite"
)

func TestScoreRepository_SaveAndLoad(t *testing.T) {
	ctx, st := suite.New(t)

	scoreRepo := NewScoreRepository(st.Storage)

	// Given: a tally with accumulated results
	tally := &entity.ScoreTally{WinsX: 2, WinsO: 1, Ties: 3}

	// When: saving and loading it back
	require.NoError(t, scoreRepo.Save(ctx, "123", tally))

	loaded, err := scoreRepo.Load(ctx, "123")

	// Then: the loaded tally matches the saved one
	require.NoError(t, err)
	assert.Equal(t, tally, loaded)
}

func TestScoreRepository_LoadMissing(t *testing.T) {
	ctx, st := suite.New(t)

	scoreRepo := NewScoreRepository(st.Storage)

	// When: loading a tally that was never saved
	loaded, err := scoreRepo.Load(ctx, "9999999")

	// Then: a zero tally is returned, not an error
	require.NoError(t, err)
	assert.Equal(t, &entity.ScoreTally{}, loaded)
}

func TestScoreRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	scoreRepo := NewScoreRepository(st.Storage)

	// Given: a stored tally
	require.NoError(t, scoreRepo.Save(ctx, "123", &entity.ScoreTally{WinsX: 1}))

	// When: deleting it
	require.NoError(t, scoreRepo.DeleteByID(ctx, "123"))

	// Then: loading yields the zero tally again
	loaded, err := scoreRepo.Load(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, &entity.ScoreTally{}, loaded)
}
