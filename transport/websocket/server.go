package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/dispatch"
)

const (
	maxMessageSize  = 64 * 1024
	shutdownTimeout = 5 * time.Second
)

type dispatcher interface {
	DispatchRaw(ctx context.Context, conn entity.ConnID, raw []byte) *dispatch.Response
}

// Server carries the same requests as the TCP server, one JSON object per text frame.
type Server struct {
	logger     *slog.Logger
	dispatcher dispatcher
	upgrader   websocket.Upgrader

	connsMutex sync.Mutex
	conns      map[*websocket.Conn]struct{}
}

func New(logger *slog.Logger, dispatcher dispatcher) *Server {
	return &Server{
		logger:     logger.With("component", "websocket"),
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler routes /ws to the upgrade handler.
func (that *Server) Handler(ctx context.Context) http.Handler {
	router := httprouter.New()
	router.GET("/ws", that.serveWS(ctx))

	return router
}

// Start - starts WebSocket server and blocks until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start", "port", port)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("WebSocket server started")
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

	// hijacked connections are not tracked by http.Server
	that.closeConns()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info("WebSocket server stopped")

	return nil
}

func (that *Server) serveWS(ctx context.Context) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		connID := entity.ConnID("ws:" + r.RemoteAddr)
		log := that.logger.With("method", "serveWS", "conn", connID)

		conn, err := that.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("failed to upgrade connection", "error", err)
			return
		}

		that.addConn(conn)
		defer that.removeConn(conn)

		conn.SetReadLimit(maxMessageSize)

		log.Info("WebSocket connection established")

		that.handleMessages(ctx, connID, conn)
	}
}

// handleMessages - reads frames until the peer goes away. Matches outlive the connection.
func (that *Server) handleMessages(ctx context.Context, connID entity.ConnID, conn *websocket.Conn) {
	log := that.logger.With("method", "handleMessages", "conn", connID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("failed to read message", "error", err)
			}
			log.Info("WebSocket connection closed")
			return
		}

		resp := that.dispatcher.DispatchRaw(ctx, connID, raw)

		if err = conn.WriteJSON(resp); err != nil {
			log.Error("failed to write response", "error", err)
			return
		}
	}
}

func (that *Server) addConn(conn *websocket.Conn) {
	that.connsMutex.Lock()
	defer that.connsMutex.Unlock()

	that.conns[conn] = struct{}{}
}

func (that *Server) removeConn(conn *websocket.Conn) {
	that.connsMutex.Lock()
	defer that.connsMutex.Unlock()

	_ = conn.Close()
	delete(that.conns, conn)
}

func (that *Server) closeConns() {
	that.connsMutex.Lock()
	defer that.connsMutex.Unlock()

	for conn := range that.conns {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}
}
