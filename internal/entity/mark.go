package entity

// Mark is the symbol a player puts on the board.
type Mark string

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	// EmptyCell is the zero Mark, stored in cells nobody has taken yet.
	EmptyCell Mark = ""

	// MarkTie is reported as the winner of a drawn match.
	MarkTie Mark = "-"
)

// Inverse returns the opponent's mark.
func (that Mark) Inverse() Mark {
	if that == MarkX {
		return MarkO
	}
	return MarkX
}

// IsValid reports whether a player may hold the mark.
func (that Mark) IsValid() bool {
	return that == MarkX || that == MarkO
}

func (that Mark) String() string {
	return string(that)
}
