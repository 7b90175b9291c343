package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameReader interface {
	GetGameState(ctx context.Context, gameID string) (*entity.MatchState, error)
	GetResult(ctx context.Context, gameID string) (*entity.MatchResult, error)
}

// Server exposes read-only views of matches and archived results over HTTP.
type Server struct {
	logger *slog.Logger
	games  gameReader
}

func New(logger *slog.Logger, games gameReader) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		games:  games,
	}
}

func (that *Server) Handler() http.Handler {
	router := httprouter.New()

	router.GET("/ping", that.ping)
	router.GET("/matches/:id", that.getMatch)
	router.GET("/results/:id", that.getResult)

	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		that.logger.Error("panic in handler", "path", r.URL.Path, "panic", v)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	return router
}

// Start - starts HTTP server and blocks until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start", "port", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info("HTTP server stopped")

	return nil
}

func (that *Server) ping(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write response", "method", "ping", "error", err)
	}
}

func (that *Server) getMatch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	state, err := that.games.GetGameState(r.Context(), ps.ByName("id"))
	if err != nil {
		that.writeError(w, "getMatch", err)
		return
	}

	that.writeJSON(w, "getMatch", state)
}

func (that *Server) getResult(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := that.games.GetResult(r.Context(), ps.ByName("id"))
	if err != nil {
		that.writeError(w, "getResult", err)
		return
	}

	that.writeJSON(w, "getResult", result)
}

func (that *Server) writeJSON(w http.ResponseWriter, method string, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "method", method, "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, method string, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
	}

	http.Error(w, err.Error(), status)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, apperror.ErrMatchNotFound), errors.Is(err, apperror.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrResultsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
