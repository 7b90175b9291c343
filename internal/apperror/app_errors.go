package apperror

import "errors"

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrAlreadyJoined   = errors.New("player already joined this match")
	ErrNoInitialPlayer = errors.New("can't add a player to a match without players")
	ErrMatchFull       = errors.New("match already has two players")
	ErrUnknownPlayer   = errors.New("player is not part of this match")
	ErrCellOutOfRange  = errors.New("cell index out of range")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrDuplicateMarks  = errors.New("players must have different marks")
	ErrInvalidMark     = errors.New("mark must be X or O")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrMatchNotStarted = errors.New("match is not started")
	ErrMatchFinished   = errors.New("match is already finished")
	ErrInvalidIdentity = errors.New("connection identity is empty")
	ErrResultNotFound  = errors.New("match result not found")
	ErrResultsDisabled = errors.New("match results storage is disabled")
)
