package entity

import (
	"errors"
	"fmt"
)

const BoardSize = 3

var ErrUnknownMark = errors.New("unknown mark")

// Mark is the content of a board cell.
type Mark uint8

const (
	MarkEmpty Mark = iota
	MarkX
	MarkO
)

func (that Mark) String() string {
	switch that {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player's mark. MarkEmpty has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

func (that Mark) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Mark) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*that = MarkEmpty
	case "X":
		*that = MarkX
	case "O":
		*that = MarkO
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMark, text)
	}

	return nil
}

type Cell struct {
	Row int
	Col int
}

func (that Cell) InBounds() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

// Board is serialised as a 3x3 array of "", "X" and "O".
type Board [BoardSize][BoardSize]Mark

func (that *Board) At(cell Cell) Mark {
	return that[cell.Row][cell.Col]
}

func (that *Board) Set(cell Cell, mark Mark) {
	that[cell.Row][cell.Col] = mark
}

// EmptyCells lists the unoccupied cells in row-major order.
func (that *Board) EmptyCells() []Cell {
	cells := make([]Cell, 0, BoardSize*BoardSize)
	for row := range BoardSize {
		for col := range BoardSize {
			if that[row][col] == MarkEmpty {
				cells = append(cells, Cell{Row: row, Col: col})
			}
		}
	}

	return cells
}

func (that *Board) IsFull() bool {
	return len(that.EmptyCells()) == 0
}
