package bot

import (
	"math/rand"
	"time"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/tictactoe"
)

const centerCell = 4

var cornerCells = [4]int{0, 2, 6, 8}

// Strategy picks moves for the scripted opponent with a fixed priority:
// win now, block the opponent's win, take the center, take a corner, take
// anything. The order is a behavioral contract; the bot must prefer its
// own win over a block. It deliberately stops short of minimax and can be
// beaten by correct play.
type Strategy struct {
	rng *rand.Rand
}

// New builds a strategy around the given random source. Tests pass a
// seeded source to pin down the corner and fallback picks; a nil source
// falls back to a time-seeded one.
func New(rng *rand.Rand) *Strategy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // move tie-breaking, not security
	}

	return &Strategy{rng: rng}
}

// SelectMove returns the cell the scripted opponent plays for the given
// mark. Callers must not invoke it on a full or terminal board.
func (that *Strategy) SelectMove(board [9]string, mark string) (int, error) {
	moves := tictactoe.AvailableMoves(board)
	if len(moves) == 0 {
		return 0, apperror.ErrNoAvailableMove
	}

	if cell, ok := winningCell(board, moves, mark); ok {
		return cell, nil
	}

	if cell, ok := winningCell(board, moves, entity.OpposingMark(mark)); ok {
		return cell, nil
	}

	if board[centerCell] == entity.EmptyCell {
		return centerCell, nil
	}

	corners := make([]int, 0, len(cornerCells))
	for _, cell := range cornerCells {
		if board[cell] == entity.EmptyCell {
			corners = append(corners, cell)
		}
	}

	if len(corners) > 0 {
		return corners[that.rng.Intn(len(corners))], nil
	}

	return moves[that.rng.Intn(len(moves))], nil
}

// winningCell scans the open cells in ascending order and reports the
// first one that completes a line for the given mark.
func winningCell(board [9]string, moves []int, mark string) (int, bool) {
	for _, cell := range moves {
		board[cell] = mark
		winner := tictactoe.EvaluateResult(board)
		board[cell] = entity.EmptyCell

		if winner == mark {
			return cell, true
		}
	}

	return 0, false
}
