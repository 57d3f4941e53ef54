package apperror

import "errors"

var (
	ErrGameAlreadyOver = errors.New("game is already over")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrNoAvailableMove = errors.New("no available move")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownMode     = errors.New("unknown game mode")
)
