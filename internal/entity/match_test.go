package entity

import (
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	connA ConnID = "127.0.0.1:50001"
	connB ConnID = "127.0.0.1:50002"
	connC ConnID = "127.0.0.1:50003"
)

func newTestMatch(t *testing.T) *Match {
	t.Helper()

	match, err := NewMatch("123", PlayerSlot{ID: connA, Mark: MarkX}, PlayerSlot{Mark: MarkO})
	require.NoError(t, err)

	return match
}

func newStartedMatch(t *testing.T, strict bool) *Match {
	t.Helper()

	match := newTestMatch(t)
	match.Strict = strict

	_, err := match.AttachPlayer(connB)
	require.NoError(t, err)

	return match
}

func TestNewMatch(t *testing.T) {
	t.Run("Creates match with an empty board", func(t *testing.T) {
		// When: a match is created with opposite marks
		match := newTestMatch(t)

		// Then: the board is empty, X moves first and slots carry the match id
		assert.Equal(t, "123", match.ID)
		assert.Equal(t, NewBoard(), match.Board)
		assert.Equal(t, PlayerSlot{ID: connA, Mark: MarkX, MatchID: "123"}, match.Slots[0])
		assert.Equal(t, PlayerSlot{Mark: MarkO, MatchID: "123"}, match.Slots[1])
		assert.Equal(t, StatusWaiting, match.Status())
	})

	t.Run("Rejects duplicate marks", func(t *testing.T) {
		// When: both slots are given the same mark
		match, err := NewMatch("123", PlayerSlot{ID: connA, Mark: MarkX}, PlayerSlot{Mark: MarkX})

		// Then: ErrDuplicateMarks is returned
		require.ErrorIs(t, err, apperror.ErrDuplicateMarks)
		assert.Nil(t, match)
	})

	t.Run("Rejects marks other than X and O", func(t *testing.T) {
		testCases := []struct {
			name          string
			first, second Mark
		}{
			{"empty first", EmptyCell, MarkO},
			{"tie second", MarkX, MarkTie},
			{"lowercase", "x", MarkO},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				match, err := NewMatch("123", PlayerSlot{ID: connA, Mark: tc.first}, PlayerSlot{Mark: tc.second})

				require.ErrorIs(t, err, apperror.ErrInvalidMark)
				assert.Nil(t, match)
			})
		}
	})
}

func TestMatch_AttachPlayer(t *testing.T) {
	t.Run("Second connection gets the opposite mark", func(t *testing.T) {
		// Given: a match created by A
		match := newTestMatch(t)

		// When: B joins
		slot, err := match.AttachPlayer(connB)

		// Then: B holds the second slot with O
		require.NoError(t, err)
		assert.Equal(t, PlayerSlot{ID: connB, Mark: MarkO, MatchID: "123"}, slot)
		assert.Equal(t, slot, match.Slots[1])
		assert.Equal(t, StatusOngoing, match.Status())
	})

	t.Run("Rejoin is rejected", func(t *testing.T) {
		// Given: a match created by A
		match := newTestMatch(t)

		// When: A tries to join its own match
		_, err := match.AttachPlayer(connA)

		// Then: ErrAlreadyJoined is returned and the second slot stays free
		require.ErrorIs(t, err, apperror.ErrAlreadyJoined)
		assert.False(t, match.Slots[1].IsClaimed())
	})

	t.Run("Third player is rejected", func(t *testing.T) {
		// Given: a match with both slots taken
		match := newStartedMatch(t, true)
		before := match.Slots

		// When: C tries to join
		_, err := match.AttachPlayer(connC)

		// Then: ErrMatchFull is returned and slots are untouched
		require.ErrorIs(t, err, apperror.ErrMatchFull)
		assert.Equal(t, before, match.Slots)
	})

	t.Run("Match without players can't be joined", func(t *testing.T) {
		// Given: a match whose slots are both unclaimed
		match, err := NewMatch("123", PlayerSlot{Mark: MarkX}, PlayerSlot{Mark: MarkO})
		require.NoError(t, err)

		// When: B tries to join
		_, err = match.AttachPlayer(connB)

		// Then: ErrNoInitialPlayer is returned
		require.ErrorIs(t, err, apperror.ErrNoInitialPlayer)
	})

	t.Run("Empty identity is rejected", func(t *testing.T) {
		match := newTestMatch(t)

		_, err := match.AttachPlayer("")

		require.ErrorIs(t, err, apperror.ErrInvalidIdentity)
	})
}

func TestMatch_ResolvePlayer(t *testing.T) {
	match := newStartedMatch(t, true)

	player, ok := match.ResolvePlayer(connA)
	require.True(t, ok)
	assert.Equal(t, MarkX, player.Mark)

	player, ok = match.ResolvePlayer(connB)
	require.True(t, ok)
	assert.Equal(t, MarkO, player.Mark)

	_, ok = match.ResolvePlayer(connC)
	assert.False(t, ok)

	_, ok = match.ResolvePlayer("")
	assert.False(t, ok)
}

func TestMatch_ApplyMove(t *testing.T) {
	t.Run("Move is applied with the player's mark", func(t *testing.T) {
		// Given: a started match
		match := newStartedMatch(t, true)

		// When: A plays cell 0
		err := match.ApplyMove(connA, 0)

		// Then: cell 0 holds X and it's O's turn
		require.NoError(t, err)
		assert.Equal(t, MarkX, match.Board.Cells[0])
		assert.Equal(t, MarkO, match.Board.Turn)
	})

	t.Run("Unknown player is rejected", func(t *testing.T) {
		match := newStartedMatch(t, true)

		err := match.ApplyMove(connC, 0)

		require.ErrorIs(t, err, apperror.ErrUnknownPlayer)
		assert.Equal(t, NewBoard(), match.Board)
	})

	t.Run("Board errors are propagated", func(t *testing.T) {
		// Given: a match where A took cell 0
		match := newStartedMatch(t, true)
		require.NoError(t, match.ApplyMove(connA, 0))

		// When: B plays the same cell or a cell outside the board
		occupiedErr := match.ApplyMove(connB, 0)
		rangeErr := match.ApplyMove(connB, 9)

		// Then: the board errors surface unchanged
		require.ErrorIs(t, occupiedErr, apperror.ErrCellOccupied)
		require.ErrorIs(t, rangeErr, apperror.ErrCellOutOfRange)
	})

	t.Run("Strict mode rejects playing out of turn", func(t *testing.T) {
		// Given: a strict match where it's X's turn
		match := newStartedMatch(t, true)

		// When: O tries to move
		err := match.ApplyMove(connB, 4)

		// Then: ErrNotYourTurn is returned and the board is untouched
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, NewBoard(), match.Board)
	})

	t.Run("Strict mode rejects moves before the match starts", func(t *testing.T) {
		match := newTestMatch(t)
		match.Strict = true

		err := match.ApplyMove(connA, 4)

		require.ErrorIs(t, err, apperror.ErrMatchNotStarted)
	})

	t.Run("Strict mode rejects moves after a win", func(t *testing.T) {
		// Given: a strict match X has already won
		match := newStartedMatch(t, true)
		for _, move := range []struct {
			conn ConnID
			cell int
		}{{connA, 0}, {connB, 3}, {connA, 1}, {connB, 6}, {connA, 2}} {
			require.NoError(t, match.ApplyMove(move.conn, move.cell))
		}

		// When: O tries to keep playing
		err := match.ApplyMove(connB, 4)

		// Then: ErrMatchFinished is returned
		require.ErrorIs(t, err, apperror.ErrMatchFinished)
	})

	t.Run("Permissive mode lets anyone move at any time", func(t *testing.T) {
		// Given: a permissive match where nobody has joined yet
		match := newTestMatch(t)

		// When: A moves twice in a row
		require.NoError(t, match.ApplyMove(connA, 0))
		require.NoError(t, match.ApplyMove(connA, 1))

		// Then: both moves land with A's mark and the turn still flipped twice
		assert.Equal(t, MarkX, match.Board.Cells[0])
		assert.Equal(t, MarkX, match.Board.Cells[1])
		assert.Equal(t, MarkX, match.Board.Turn)
	})
}

func TestMatch_Winner(t *testing.T) {
	lines := [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}

	for _, mark := range []Mark{MarkX, MarkO} {
		for _, line := range lines {
			// Given: a board where one line is filled with mark
			match := newStartedMatch(t, false)
			for _, cell := range line {
				match.Board.Cells[cell] = mark
			}

			// When: the winner is computed
			winner, ok := match.Winner()

			// Then: mark is reported
			require.True(t, ok, "mark %s line %v", mark, line)
			assert.Equal(t, mark, winner, "line %v", line)
		}
	}

	t.Run("Full board without a line has no winner", func(t *testing.T) {
		match := newStartedMatch(t, false)
		match.Board.Cells = [BoardSize]Mark{
			MarkX, MarkO, MarkX,
			MarkX, MarkO, MarkO,
			MarkO, MarkX, MarkX,
		}

		_, ok := match.Winner()

		assert.False(t, ok)
		assert.True(t, match.IsDraw())
		assert.Equal(t, StatusFinished, match.Status())
	})

	t.Run("Mixed line is not a win", func(t *testing.T) {
		match := newStartedMatch(t, false)
		match.Board.Cells = [BoardSize]Mark{
			MarkX, MarkX, MarkO,
			EmptyCell, MarkO, EmptyCell,
			MarkX, EmptyCell, EmptyCell,
		}

		_, ok := match.Winner()

		assert.False(t, ok)
		assert.False(t, match.IsDraw())
	})

	t.Run("Simultaneous lines resolve in slot order", func(t *testing.T) {
		// Given: an impossible board where both marks own a row
		match := newStartedMatch(t, false)
		match.Board.Cells = [BoardSize]Mark{
			MarkO, MarkO, MarkO,
			MarkX, MarkX, MarkX,
			EmptyCell, EmptyCell, EmptyCell,
		}

		// When: the winner is computed
		winner, ok := match.Winner()

		// Then: the first slot's mark wins
		require.True(t, ok)
		assert.Equal(t, MarkX, winner)
	})
}

func TestMatch_State(t *testing.T) {
	t.Run("Ongoing match", func(t *testing.T) {
		match := newStartedMatch(t, true)
		require.NoError(t, match.ApplyMove(connA, 4))

		state := match.State()

		expectedState := &MatchState{
			ID:     "123",
			Board:  [BoardSize]Mark{"", "", "", "", MarkX, "", "", "", ""},
			Turn:   MarkO,
			Winner: EmptyCell,
			Status: StatusOngoing,
			Players: []PlayerSlot{
				{ID: connA, Mark: MarkX, MatchID: "123"},
				{ID: connB, Mark: MarkO, MatchID: "123"},
			},
		}
		require.Equal(t, expectedState, state)
		assert.Nil(t, match.Result(time.Now()))
	})

	t.Run("Drawn match", func(t *testing.T) {
		match := newStartedMatch(t, false)
		match.Board.Cells = [BoardSize]Mark{
			MarkX, MarkO, MarkX,
			MarkX, MarkO, MarkO,
			MarkO, MarkX, MarkX,
		}
		finishedAt := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

		state := match.State()
		result := match.Result(finishedAt)

		assert.Equal(t, StatusFinished, state.Status)
		assert.Equal(t, MarkTie, state.Winner)
		assert.Equal(t, EmptyCell, state.Turn)
		require.NotNil(t, result)
		assert.Equal(t, "123", result.MatchID)
		assert.Equal(t, MarkTie, result.Winner)
		assert.Equal(t, finishedAt, result.FinishedAt)
		assert.Len(t, result.Players, 2)
	})
}
