// Package dispatch turns decoded client requests into game operations and
// game errors into client responses. It knows nothing about the wire.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
)

const (
	ActionNewGame   = "game:new"
	ActionJoinGame  = "game:join"
	ActionGameTurn  = "game:turn"
	ActionGameState = "game:state"
	ActionError     = "error"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBadRequest    = errors.New("bad request")
)

type gameUseCase interface {
	CreateGame(ctx context.Context, conn entity.ConnID) (*entity.MatchState, *entity.PlayerSlot, error)
	JoinGame(ctx context.Context, gameID string, conn entity.ConnID) (*entity.MatchState, *entity.PlayerSlot, error)
	MakeTurn(ctx context.Context, gameID string, conn entity.ConnID, cell int) (*entity.MatchState, error)
	GetGameState(ctx context.Context, gameID string) (*entity.MatchState, error)
}

type handlerFunc func(ctx context.Context, conn entity.ConnID, req *Request) (*Response, error)

type Dispatcher struct {
	logger      *slog.Logger
	gameUseCase gameUseCase

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Dispatcher {
	dispatcher := &Dispatcher{
		logger:      logger.With("component", "dispatcher"),
		gameUseCase: gameUseCase,
		handlers:    make(map[string]handlerFunc),
	}

	dispatcher.handlers[ActionNewGame] = dispatcher.handleNewGame
	dispatcher.handlers[ActionJoinGame] = dispatcher.handleJoinGame
	dispatcher.handlers[ActionGameTurn] = dispatcher.handleGameTurn
	dispatcher.handlers[ActionGameState] = dispatcher.handleGameState

	return dispatcher
}

// DispatchRaw decodes one JSON request and handles it. It always returns a response.
func (that *Dispatcher) DispatchRaw(ctx context.Context, conn entity.ConnID, raw []byte) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		that.logger.Warn("failed to unmarshal request", "conn", conn, "error", err)
		return errorResponse(ActionError, fmt.Errorf("%w: %w", ErrBadRequest, err))
	}

	return that.Dispatch(ctx, conn, &req)
}

// Dispatch handles one request on behalf of conn. Game errors become error
// responses; the caller keeps the connection open.
func (that *Dispatcher) Dispatch(ctx context.Context, conn entity.ConnID, req *Request) *Response {
	log := that.logger.With("method", "Dispatch", "action", req.Action, "conn", conn)

	handler, ok := that.handlers[req.Action]
	if !ok {
		log.Warn("unknown action")
		return errorResponse(req.Action, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action))
	}

	resp, err := handler(ctx, conn, req)
	if err != nil {
		log.Warn("request failed", "error", err)
		return errorResponse(req.Action, err)
	}

	log.Debug("request handled")

	return resp
}

func (that *Dispatcher) handleNewGame(ctx context.Context, conn entity.ConnID, req *Request) (*Response, error) {
	game, player, err := that.gameUseCase.CreateGame(ctx, conn)
	if err != nil {
		return nil, err
	}

	return &Response{
		Action: req.Action,
		Player: player,
		Game:   game,
	}, nil
}

func (that *Dispatcher) handleJoinGame(ctx context.Context, conn entity.ConnID, req *Request) (*Response, error) {
	if req.MatchID == "" {
		return nil, fmt.Errorf("%w: match_id is required", ErrBadRequest)
	}

	game, player, err := that.gameUseCase.JoinGame(ctx, req.MatchID, conn)
	if err != nil {
		return nil, err
	}

	return &Response{
		Action: req.Action,
		Player: player,
		Game:   game,
	}, nil
}

func (that *Dispatcher) handleGameTurn(ctx context.Context, conn entity.ConnID, req *Request) (*Response, error) {
	if req.MatchID == "" {
		return nil, fmt.Errorf("%w: match_id is required", ErrBadRequest)
	}

	if req.Cell == nil {
		return nil, fmt.Errorf("%w: cell is required", ErrBadRequest)
	}

	game, err := that.gameUseCase.MakeTurn(ctx, req.MatchID, conn, *req.Cell)
	if err != nil {
		return nil, err
	}

	return &Response{
		Action: req.Action,
		Game:   game,
	}, nil
}

func (that *Dispatcher) handleGameState(ctx context.Context, _ entity.ConnID, req *Request) (*Response, error) {
	if req.MatchID == "" {
		return nil, fmt.Errorf("%w: match_id is required", ErrBadRequest)
	}

	game, err := that.gameUseCase.GetGameState(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}

	return &Response{
		Action: req.Action,
		Game:   game,
		Board:  game.Render(),
	}, nil
}

func errorResponse(action string, err error) *Response {
	return &Response{
		Action: action,
		Error:  err.Error(),
		Code:   ErrorCode(err),
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{apperror.ErrMatchNotFound, "not_found"},
	{apperror.ErrAlreadyJoined, "already_joined"},
	{apperror.ErrNoInitialPlayer, "no_initial_player"},
	{apperror.ErrMatchFull, "match_full"},
	{apperror.ErrUnknownPlayer, "unknown_player"},
	{apperror.ErrCellOutOfRange, "out_of_range"},
	{apperror.ErrCellOccupied, "cell_occupied"},
	{apperror.ErrDuplicateMarks, "duplicate_marks"},
	{apperror.ErrInvalidMark, "invalid_mark"},
	{apperror.ErrNotYourTurn, "not_your_turn"},
	{apperror.ErrMatchNotStarted, "not_started"},
	{apperror.ErrMatchFinished, "finished"},
	{apperror.ErrInvalidIdentity, "invalid_identity"},
	{apperror.ErrResultNotFound, "not_found"},
	{apperror.ErrResultsDisabled, "results_disabled"},
	{ErrUnknownAction, "unknown_action"},
	{ErrBadRequest, "bad_request"},
}

// ErrorCode maps an error to the stable code sent to clients.
func ErrorCode(err error) string {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}

	return "internal"
}
