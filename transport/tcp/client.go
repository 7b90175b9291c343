package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/dispatch"
)

// Client is a minimal blocking client for Server. Requests are sent one at a time.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	encoder *json.Encoder
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		encoder: json.NewEncoder(conn),
	}, nil
}

// Do sends req and waits for its response.
func (that *Client) Do(req *dispatch.Request) (*dispatch.Response, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	line, err := that.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp dispatch.Response
	if err = json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &resp, nil
}

func (that *Client) CreateGame() (*dispatch.Response, error) {
	return that.Do(&dispatch.Request{Action: dispatch.ActionNewGame})
}

func (that *Client) JoinGame(gameID string) (*dispatch.Response, error) {
	return that.Do(&dispatch.Request{Action: dispatch.ActionJoinGame, MatchID: gameID})
}

func (that *Client) SetTile(gameID string, cell int) (*dispatch.Response, error) {
	return that.Do(&dispatch.Request{Action: dispatch.ActionGameTurn, MatchID: gameID, Cell: &cell})
}

func (that *Client) GetGameState(gameID string) (*dispatch.Response, error) {
	return that.Do(&dispatch.Request{Action: dispatch.ActionGameState, MatchID: gameID})
}

// Identity is the connection id the server assigns to this client.
func (that *Client) Identity() entity.ConnID {
	return connIdentity(that.conn.LocalAddr())
}

func (that *Client) Close() error {
	return that.conn.Close()
}
