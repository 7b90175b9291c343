package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"
)

var diagonals = [2][lineSize]int{
	{0, 4, 8},
	{2, 4, 6},
}

// Match is a single game between two slots. It is not safe for concurrent use;
// the registry serializes access to it.
type Match struct {
	ID    string
	Board Board
	Slots [2]PlayerSlot

	// Strict enables turn ownership and lifecycle checks in ApplyMove.
	Strict bool
}

// MatchState is a read-only snapshot of a match handed to transports.
type MatchState struct {
	ID      string          `json:"id"`
	Board   [BoardSize]Mark `json:"board"`
	Turn    Mark            `json:"player_turn"`
	Winner  Mark            `json:"winner"`
	Status  string          `json:"status"`
	Players []PlayerSlot    `json:"players,omitempty"`
}

// MatchResult is the final outcome of a decided match.
type MatchResult struct {
	MatchID    string          `json:"match_id"`
	Winner     Mark            `json:"winner"`
	Board      [BoardSize]Mark `json:"board"`
	Players    []PlayerSlot    `json:"players"`
	FinishedAt time.Time       `json:"finished_at"`
}

func NewMatch(id string, first, second PlayerSlot) (*Match, error) {
	for _, slot := range []PlayerSlot{first, second} {
		if !slot.Mark.IsValid() {
			return nil, fmt.Errorf("%w: got %q", apperror.ErrInvalidMark, slot.Mark)
		}
	}

	if first.Mark == second.Mark {
		return nil, fmt.Errorf("%w: both slots are %q", apperror.ErrDuplicateMarks, first.Mark)
	}

	first.MatchID = id
	second.MatchID = id

	return &Match{
		ID:    id,
		Board: NewBoard(),
		Slots: [2]PlayerSlot{first, second},
	}, nil
}

// AttachPlayer puts conn into the first free slot with the mark opposite to the
// slot that is already taken. Rejoining is an error, not a no-op.
func (that *Match) AttachPlayer(conn ConnID) (PlayerSlot, error) {
	if conn == "" {
		return PlayerSlot{}, apperror.ErrInvalidIdentity
	}

	var claimed *PlayerSlot
	for i := range that.Slots {
		slot := &that.Slots[i]
		if !slot.IsClaimed() {
			continue
		}

		if slot.ID == conn {
			return PlayerSlot{}, fmt.Errorf("%w: match %s", apperror.ErrAlreadyJoined, that.ID)
		}

		claimed = slot
	}

	if claimed == nil {
		return PlayerSlot{}, apperror.ErrNoInitialPlayer
	}

	for i := range that.Slots {
		slot := &that.Slots[i]
		if slot.IsClaimed() {
			continue
		}

		slot.ID = conn
		slot.Mark = claimed.Mark.Inverse()
		slot.MatchID = that.ID

		return *slot, nil
	}

	return PlayerSlot{}, fmt.Errorf("%w: match %s", apperror.ErrMatchFull, that.ID)
}

func (that *Match) ResolvePlayer(conn ConnID) (PlayerSlot, bool) {
	if conn == "" {
		return PlayerSlot{}, false
	}

	for _, slot := range that.Slots {
		if slot.ID == conn {
			return slot, true
		}
	}

	return PlayerSlot{}, false
}

// ApplyMove places the mark of the player behind conn on cell.
func (that *Match) ApplyMove(conn ConnID, cell int) error {
	player, ok := that.ResolvePlayer(conn)
	if !ok {
		return apperror.ErrUnknownPlayer
	}

	if that.Strict {
		switch that.Status() {
		case StatusFinished:
			return apperror.ErrMatchFinished
		case StatusWaiting:
			return apperror.ErrMatchNotStarted
		}

		if that.Board.Turn != player.Mark {
			return apperror.ErrNotYourTurn
		}
	}

	if err := that.Board.Apply(cell, player.Mark); err != nil {
		return fmt.Errorf("failed to apply move: %w", err)
	}

	return nil
}

// Winner returns the mark owning a complete line. Slots are checked in order,
// so on an impossible board with two complete lines the first slot's mark wins.
func (that *Match) Winner() (Mark, bool) {
	for _, slot := range that.Slots {
		if that.hasLine(slot.Mark) {
			return slot.Mark, true
		}
	}

	return EmptyCell, false
}

func (that *Match) hasLine(mark Mark) bool {
	cells := that.Board.Cells

	for y := range lineSize {
		horizontal, vertical := 0, 0

		for x := range lineSize {
			if cells[y*lineSize+x] == mark {
				horizontal++
			}

			if cells[x*lineSize+y] == mark {
				vertical++
			}
		}

		if horizontal == lineSize || vertical == lineSize {
			return true
		}
	}

	for _, diagonal := range diagonals {
		count := 0
		for _, i := range diagonal {
			if cells[i] == mark {
				count++
			}
		}

		if count == lineSize {
			return true
		}
	}

	return false
}

func (that *Match) IsDraw() bool {
	if _, ok := that.Winner(); ok {
		return false
	}

	return that.Board.IsFull()
}

func (that *Match) Status() string {
	if _, ok := that.Winner(); ok || that.Board.IsFull() {
		return StatusFinished
	}

	for _, slot := range that.Slots {
		if !slot.IsClaimed() {
			return StatusWaiting
		}
	}

	return StatusOngoing
}

// State takes a snapshot of the match.
func (that *Match) State() *MatchState {
	state := &MatchState{
		ID:     that.ID,
		Board:  that.Board.Cells,
		Turn:   that.Board.Turn,
		Status: that.Status(),
	}

	if winner, ok := that.Winner(); ok {
		state.Winner = winner
	} else if that.IsDraw() {
		state.Winner = MarkTie
	}

	if state.Status == StatusFinished {
		state.Turn = EmptyCell
	}

	for _, slot := range that.Slots {
		if slot.IsClaimed() {
			state.Players = append(state.Players, slot)
		}
	}

	return state
}

// Result describes the outcome of a finished match. It returns nil while the match is still undecided.
func (that *Match) Result(finishedAt time.Time) *MatchResult {
	state := that.State()
	if state.Status != StatusFinished {
		return nil
	}

	return &MatchResult{
		MatchID:    that.ID,
		Winner:     state.Winner,
		Board:      state.Board,
		Players:    state.Players,
		FinishedAt: finishedAt,
	}
}

// Render draws the snapshot's board the same way Board.Render does.
func (that *MatchState) Render() string {
	board := Board{Cells: that.Board}
	return board.Render()
}
