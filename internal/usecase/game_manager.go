package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/registry"
)

type resultRepo interface {
	Save(ctx context.Context, result *entity.MatchResult) error
	GetByID(ctx context.Context, matchID string) (*entity.MatchResult, error)
}

type GameManager struct {
	logger     *slog.Logger
	registry   *registry.Registry
	resultRepo resultRepo

	now func() time.Time
}

// NewGameManager builds the game use cases on top of reg. resultRepo may be nil,
// in which case finished matches are not recorded.
func NewGameManager(logger *slog.Logger, reg *registry.Registry, resultRepo resultRepo) *GameManager {
	return &GameManager{
		logger:     logger.With("component", "game_manager"),
		registry:   reg,
		resultRepo: resultRepo,
		now:        time.Now,
	}
}

// CreateGame opens a new match with conn in the X slot.
func (that *GameManager) CreateGame(_ context.Context, conn entity.ConnID) (*entity.MatchState, *entity.PlayerSlot, error) {
	gameID, player, err := that.registry.Create(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create game: %w", err)
	}

	state, err := that.getGameState(gameID)
	if err != nil {
		return nil, nil, err
	}

	that.logger.Info("game created", "gameID", gameID, "player", conn)

	return state, &player, nil
}

func (that *GameManager) JoinGame(_ context.Context, gameID string, conn entity.ConnID) (*entity.MatchState, *entity.PlayerSlot, error) {
	handle, err := that.registry.Get(gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get game: %w", err)
	}

	var (
		player entity.PlayerSlot
		state  *entity.MatchState
	)

	err = handle.Update(func(match *entity.Match) error {
		player, err = match.AttachPlayer(conn)
		if err != nil {
			return err
		}

		state = match.State()

		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to join game: %w", err)
	}

	that.logger.Info("player joined", "gameID", gameID, "player", conn, "mark", player.Mark)

	return state, &player, nil
}

// MakeTurn applies the move and returns the state right after it. The whole
// sequence runs under the match lock, so concurrent turns can't interleave.
func (that *GameManager) MakeTurn(ctx context.Context, gameID string, conn entity.ConnID, cell int) (*entity.MatchState, error) {
	handle, err := that.registry.Get(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var (
		state  *entity.MatchState
		result *entity.MatchResult
	)

	err = handle.Update(func(match *entity.Match) error {
		if err := match.ApplyMove(conn, cell); err != nil {
			return err
		}

		state = match.State()
		result = match.Result(that.now())

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	if result != nil {
		that.saveResult(ctx, result)
	}

	return state, nil
}

// GetGameState is the poll operation: the current board, or the outcome once decided.
func (that *GameManager) GetGameState(_ context.Context, gameID string) (*entity.MatchState, error) {
	return that.getGameState(gameID)
}

func (that *GameManager) GetResult(ctx context.Context, gameID string) (*entity.MatchResult, error) {
	if that.resultRepo == nil {
		return nil, apperror.ErrResultsDisabled
	}

	result, err := that.resultRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return result, nil
}

func (that *GameManager) getGameState(gameID string) (*entity.MatchState, error) {
	handle, err := that.registry.Get(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var state *entity.MatchState
	handle.View(func(match *entity.Match) {
		state = match.State()
	})

	return state, nil
}

func (that *GameManager) saveResult(ctx context.Context, result *entity.MatchResult) {
	log := that.logger.With("method", "saveResult", "gameID", result.MatchID)

	log.Info("game finished", "winner", result.Winner)

	if that.resultRepo == nil {
		return
	}

	if err := that.resultRepo.Save(ctx, result); err != nil {
		log.Error("failed to save result", "error", err)
	}
}
