package tictactoe

import (
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

// Bot picks the AI's reply. The boolean is false when the board has no empty cell.
type Bot interface {
	ChooseMove(board entity.Board) (entity.Cell, bool)
}

type randomBot struct {
	intN func(n int) int
}

// NewRandomBot returns a bot that picks uniformly among the empty cells.
// intN must return a value in [0, n); nil means math/rand/v2.IntN.
func NewRandomBot(intN func(n int) int) Bot {
	if intN == nil {
		intN = rand.IntN
	}

	return &randomBot{intN: intN}
}

func (that *randomBot) ChooseMove(board entity.Board) (entity.Cell, bool) {
	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return entity.Cell{}, false
	}

	return availableCells[that.intN(len(availableCells))], true
}
