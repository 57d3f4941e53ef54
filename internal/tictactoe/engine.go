package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

// WinLines lists the 8 winning triples in a fixed order: rows top to
// bottom, columns left to right, then both diagonals. EvaluateResult and
// WinningLine share this table, so the highlighted line always matches the
// reported winner.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func NewBoard() [9]string {
	return [9]string{}
}

// ApplyMove writes the active side's mark into the given cell. The mark is
// taken from the session turn, never from the caller, so turn order cannot
// desynchronize. Rejection is atomic: on any error the session is left
// untouched.
func ApplyMove(session *entity.GameSession, cell int) error {
	if cell < 0 || cell >= len(session.Board) {
		return apperror.ErrInvalidCell
	}

	if session.IsFinished() {
		return apperror.ErrGameAlreadyOver
	}

	if session.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	session.Board[cell] = session.Turn
	session.Generation++

	switch winner := EvaluateResult(session.Board); winner {
	case entity.PlayerX, entity.PlayerO:
		session.Winner = winner
		session.Status = entity.StatusFinished
		session.Turn = entity.EmptyCell

		if line, ok := WinningLine(session.Board); ok {
			session.WinLine = &line
		}
	case entity.PlayerTie:
		session.Winner = entity.PlayerTie
		session.Status = entity.StatusFinished
		session.Turn = entity.EmptyCell
	default:
		session.Turn = entity.OpposingMark(session.Turn)
	}

	return nil
}

// EvaluateResult reports the winner's mark for the first completed line in
// the fixed WinLines order, PlayerTie for a full board without one, or an
// empty string while the game is still open.
func EvaluateResult(board [9]string) string {
	for _, line := range WinLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return ""
		}
	}

	return entity.PlayerTie
}

// WinningLine returns the first completed triple in WinLines order. The
// second result is true exactly when EvaluateResult reports a winner.
func WinningLine(board [9]string) ([3]int, bool) {
	for _, line := range WinLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return line, true
		}
	}

	return [3]int{}, false
}

// AvailableMoves returns the empty cell indices in ascending order.
func AvailableMoves(board [9]string) []int {
	moves := make([]int, 0, len(board))
	for i, cell := range board {
		if cell == entity.EmptyCell {
			moves = append(moves, i)
		}
	}

	return moves
}
