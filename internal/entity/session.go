package entity

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

const (
	LocalMode = "local"
	BotMode   = "bot"
)

// GameSession holds one active play session: the board, whose turn it is,
// the selected mode, and the terminal result once the board is decided.
// Generation grows on every board mutation and is used to invalidate
// scheduled bot moves computed against an older board.
type GameSession struct {
	ID         string    `json:"id"`
	Board      [9]string `json:"board"`
	Turn       string    `json:"player_turn"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	Winner     string    `json:"winner,omitempty"`
	WinLine    *[3]int   `json:"win_line,omitempty"`
	Generation uint64    `json:"generation"`
}

func NewSession(id, mode string) *GameSession {
	return &GameSession{
		ID:     id,
		Board:  [9]string{},
		Turn:   PlayerX,
		Mode:   mode,
		Status: StatusOngoing,
	}
}

func (that *GameSession) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *GameSession) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *GameSession) IsWithBot() bool {
	return that.Mode == BotMode
}

// ResetBoard starts a fresh game in the same session: empty board, X to
// move, mode preserved. The generation keeps growing so that any scheduled
// move computed against the old board is dropped.
func (that *GameSession) ResetBoard() {
	that.Board = [9]string{}
	that.Turn = PlayerX
	that.Status = StatusOngoing
	that.Winner = EmptyCell
	that.WinLine = nil
	that.Generation++
}

func IsValidMode(mode string) bool {
	return mode == LocalMode || mode == BotMode
}

// OpposingMark returns the mark of the other side.
func OpposingMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
