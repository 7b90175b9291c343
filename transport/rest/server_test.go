package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
)

type mockGameReader struct {
	mock.Mock
}

func (that *mockGameReader) GetGameState(ctx context.Context, gameID string) (*entity.MatchState, error) {
	args := that.Called(ctx, gameID)

	state, _ := args.Get(0).(*entity.MatchState)

	return state, args.Error(1)
}

func (that *mockGameReader) GetResult(ctx context.Context, gameID string) (*entity.MatchResult, error) {
	args := that.Called(ctx, gameID)

	result, _ := args.Get(0).(*entity.MatchResult)

	return result, args.Error(1)
}

func newTestServer(t *testing.T, games gameReader) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(New(logger, games).Handler())
	t.Cleanup(server.Close)

	return server
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestServer_Ping(t *testing.T) {
	server := newTestServer(t, &mockGameReader{})

	status, body := get(t, server.URL+"/ping")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", string(body))
}

func TestServer_GetMatch(t *testing.T) {
	t.Run("Existing match", func(t *testing.T) {
		// Given: a match with one move
		games := &mockGameReader{}
		state := &entity.MatchState{
			ID:     "m1",
			Turn:   entity.MarkO,
			Status: entity.StatusOngoing,
		}
		state.Board[4] = entity.MarkX
		games.On("GetGameState", mock.Anything, "m1").Return(state, nil)

		server := newTestServer(t, games)

		// When: the match is requested
		status, body := get(t, server.URL+"/matches/m1")

		// Then: its state is returned as JSON
		require.Equal(t, http.StatusOK, status)

		var got entity.MatchState
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, *state, got)
		games.AssertExpectations(t)
	})

	t.Run("Unknown match", func(t *testing.T) {
		games := &mockGameReader{}
		games.On("GetGameState", mock.Anything, "nope").
			Return(nil, fmt.Errorf("failed to get game: %w", apperror.ErrMatchNotFound))

		server := newTestServer(t, games)

		status, _ := get(t, server.URL+"/matches/nope")

		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestServer_GetResult(t *testing.T) {
	testCases := []struct {
		name   string
		result *entity.MatchResult
		err    error
		status int
	}{
		{
			name: "Archived result",
			result: &entity.MatchResult{
				MatchID:    "m1",
				Winner:     entity.MarkX,
				FinishedAt: time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
			},
			status: http.StatusOK,
		},
		{name: "Not archived", err: apperror.ErrResultNotFound, status: http.StatusNotFound},
		{name: "Archive disabled", err: apperror.ErrResultsDisabled, status: http.StatusServiceUnavailable},
		{name: "Storage failure", err: errors.New("connection refused"), status: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			games := &mockGameReader{}
			games.On("GetResult", mock.Anything, "m1").Return(tc.result, tc.err)

			server := newTestServer(t, games)

			status, body := get(t, server.URL+"/results/m1")

			require.Equal(t, tc.status, status)

			if tc.result != nil {
				var got entity.MatchResult
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, tc.result.Winner, got.Winner)
				assert.True(t, tc.result.FinishedAt.Equal(got.FinishedAt))
			}
		})
	}
}
