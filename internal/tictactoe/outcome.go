package tictactoe

import "github.com/rocketscienceinc/tictactoe-backend/internal/entity"

type Result uint8

const (
	ResultNone Result = iota
	ResultWin
	ResultDraw
)

// Outcome is the evaluation of a board. Mark is set only for ResultWin.
type Outcome struct {
	Result Result
	Mark   entity.Mark
}

func (that Outcome) IsOver() bool {
	return that.Result != ResultNone
}

// WinLines are the rows, then the columns, then both diagonals.
var WinLines = [8][3]entity.Cell{
	{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}},
	{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}},
	{{Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}},
	{{Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 2, Col: 1}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 2}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 1}, {Row: 2, Col: 0}},
}

// Evaluate reports whether a mark owns a full line, the board is a draw, or play goes on.
func Evaluate(board entity.Board) Outcome {
	for _, line := range WinLines {
		a, b, c := board.At(line[0]), board.At(line[1]), board.At(line[2])
		if a != entity.MarkEmpty && a == b && b == c {
			return Outcome{Result: ResultWin, Mark: a}
		}
	}

	// the game will continue until all the squares are full
	if !board.IsFull() {
		return Outcome{Result: ResultNone}
	}

	return Outcome{Result: ResultDraw}
}
