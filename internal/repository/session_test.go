package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/testing/suite"
)

func TestSessionRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	sessionRepo := NewSessionRepository(st.Storage)

	// Given: a fresh bot-mode session
	session := entity.NewSession("123", entity.BotMode)

	// When: CreateOrUpdate is called
	err := sessionRepo.CreateOrUpdate(ctx, session)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestSessionRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// Given: a stored session with a marked board and a winning line
		line := [3]int{0, 1, 2}
		session := entity.NewSession("123", entity.LocalMode)
		session.Board = [9]string{entity.PlayerX, entity.PlayerX, entity.PlayerX, entity.PlayerO, entity.PlayerO, "", "", "", ""}
		session.Status = entity.StatusFinished
		session.Winner = entity.PlayerX
		session.WinLine = &line
		session.Generation = 5

		err := sessionRepo.CreateOrUpdate(ctx, session)
		require.NoError(t, err)

		// When: GetByID is called with the existing id
		retrievedSession, err := sessionRepo.GetByID(ctx, session.ID)

		// Then: the retrieved session should match the saved one
		require.NoError(t, err)
		require.Equal(t, session, retrievedSession)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// When: GetByID is called with a non-existent id
		retrievedSession, err := sessionRepo.GetByID(ctx, "9999999")

		// Then: an ErrSessionNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.Empty(t, retrievedSession.ID)
	})
}

func TestSessionRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	sessionRepo := NewSessionRepository(st.Storage)

	// Given: a stored session
	session := entity.NewSession("123", entity.LocalMode)
	require.NoError(t, sessionRepo.CreateOrUpdate(ctx, session))

	// When: DeleteByID is called
	err := sessionRepo.DeleteByID(ctx, session.ID)

	// Then: the session is gone
	require.NoError(t, err)

	_, err = sessionRepo.GetByID(ctx, session.ID)
	require.ErrorIs(t, err, apperror.ErrSessionNotFound)
}
