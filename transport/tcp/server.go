package tcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/dispatch"
)

// maxMessageSize bounds a single request line.
const maxMessageSize = 64 * 1024

type dispatcher interface {
	DispatchRaw(ctx context.Context, conn entity.ConnID, raw []byte) *dispatch.Response
}

// Server speaks newline-delimited JSON: one request per line in, one response per line out.
type Server struct {
	logger     *slog.Logger
	dispatcher dispatcher

	sessionsMutex sync.Mutex
	sessions      map[entity.ConnID]net.Conn
	closed        bool
	wg            sync.WaitGroup
}

func New(logger *slog.Logger, dispatcher dispatcher) *Server {
	return &Server{
		logger:     logger.With("component", "tcp"),
		dispatcher: dispatcher,
		sessions:   make(map[entity.ConnID]net.Conn),
	}
}

// Start listens on port and serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return that.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is canceled, then closes the
// listener and every open connection and waits for their goroutines to exit.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
		that.closeSessions()
	})
	defer stop()
	defer that.wg.Wait()

	log.Info("TCP server started")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info("TCP server stopped")
				return nil
			}

			log.Error("failed to accept connection", "error", err)
			continue
		}

		that.wg.Add(1)
		go func() {
			defer that.wg.Done()
			that.handleConn(ctx, conn)
		}()
	}
}

// handleConn runs the request loop of one client. A read or write failure ends
// the loop; the client's matches stay in the registry.
func (that *Server) handleConn(ctx context.Context, conn net.Conn) {
	connID := connIdentity(conn.RemoteAddr())
	log := that.logger.With("method", "handleConn", "conn", connID)

	if !that.addSession(connID, conn) {
		_ = conn.Close()
		log.Info("connection dropped, server is shutting down")
		return
	}
	defer that.removeSession(connID)

	log.Info("client connected")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxMessageSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		resp := that.dispatcher.DispatchRaw(ctx, connID, line)

		if err := encoder.Encode(resp); err != nil {
			log.Error("failed to write response", "error", err)
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Error("failed to read request", "error", err)
		return
	}

	log.Info("client disconnected")
}

// connIdentity names a TCP peer. The prefix keeps it apart from a WebSocket
// peer that happens to share the same address.
func connIdentity(addr net.Addr) entity.ConnID {
	return entity.ConnID("tcp:" + addr.String())
}

// addSession registers conn unless closeSessions already ran.
func (that *Server) addSession(id entity.ConnID, conn net.Conn) bool {
	that.sessionsMutex.Lock()
	defer that.sessionsMutex.Unlock()

	if that.closed {
		return false
	}

	that.sessions[id] = conn

	return true
}

func (that *Server) removeSession(id entity.ConnID) {
	that.sessionsMutex.Lock()
	defer that.sessionsMutex.Unlock()

	if conn, ok := that.sessions[id]; ok {
		_ = conn.Close()
		delete(that.sessions, id)
	}
}

func (that *Server) closeSessions() {
	that.sessionsMutex.Lock()
	defer that.sessionsMutex.Unlock()

	that.closed = true

	for _, conn := range that.sessions {
		_ = conn.Close()
	}
}
