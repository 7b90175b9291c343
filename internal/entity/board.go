package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/apperror"
)

const (
	BoardSize = 9
	lineSize  = 3
)

type Board struct {
	Cells [BoardSize]Mark `json:"cells"`
	Turn  Mark            `json:"turn"`
}

// NewBoard returns an empty board where X moves first.
func NewBoard() Board {
	return Board{Turn: MarkX}
}

// Apply puts mark on cell and passes the turn. A taken cell is never overwritten.
func (that *Board) Apply(cell int, mark Mark) error {
	if cell < 0 || cell >= len(that.Cells) {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOutOfRange, cell)
	}

	if that.Cells[cell] != EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	that.Cells[cell] = mark
	that.Turn = that.Turn.Inverse()

	return nil
}

func (that *Board) IsFull() bool {
	for _, cell := range that.Cells {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Render draws the board as three text rows, empty cells shown as "-".
func (that *Board) Render() string {
	var sb strings.Builder

	for i, cell := range that.Cells {
		if i > 0 && i%lineSize == 0 {
			sb.WriteByte('\n')
		}

		if cell == EmptyCell {
			sb.WriteString(" - ")
			continue
		}

		sb.WriteString(" " + cell.String() + " ")
	}

	return sb.String()
}
