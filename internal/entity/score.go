package entity

import "fmt"

// ScoreTally accumulates terminal results within a session. Counters only
// grow until an explicit reset zeroes all three.
type ScoreTally struct {
	WinsX int `json:"wins_x"`
	WinsO int `json:"wins_o"`
	Ties  int `json:"ties"`
}

// Record increments exactly one counter for a terminal result.
func (that *ScoreTally) Record(winner string) error {
	switch winner {
	case PlayerX:
		that.WinsX++
	case PlayerO:
		that.WinsO++
	case PlayerTie:
		that.Ties++
	default:
		return fmt.Errorf("cannot record result for winner %q", winner)
	}

	return nil
}
