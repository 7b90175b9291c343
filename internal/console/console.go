// Package console is the terminal front end: it creates or joins a match over a
// game client, then polls the board, prompts for moves on the player's turn and
// prints the outcome.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/dispatch"
)

const (
	DefaultPollInterval = 100 * time.Millisecond

	clearScreen = "\x1B[2J"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrServer         = errors.New("server rejected request")
)

type gameClient interface {
	CreateGame() (*dispatch.Response, error)
	JoinGame(gameID string) (*dispatch.Response, error)
	SetTile(gameID string, cell int) (*dispatch.Response, error)
	GetGameState(gameID string) (*dispatch.Response, error)
}

type Console struct {
	client       gameClient
	in           *bufio.Scanner
	out          io.Writer
	pollInterval time.Duration
}

func New(client gameClient, in io.Reader, out io.Writer, pollInterval time.Duration) *Console {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Console{
		client:       client,
		in:           bufio.NewScanner(in),
		out:          out,
		pollInterval: pollInterval,
	}
}

// Run asks whether to create or join, then plays one match to the end.
func (that *Console) Run(ctx context.Context) error {
	that.println("game [create / join]?")

	command, err := that.readLine()
	if err != nil {
		return err
	}

	var resp *dispatch.Response

	switch command {
	case "create":
		resp, err = that.client.CreateGame()
	case "join":
		that.println("id [*game_id*]?")

		gameID, readErr := that.readLine()
		if readErr != nil {
			return readErr
		}

		resp, err = that.client.JoinGame(gameID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	if err != nil {
		return fmt.Errorf("failed to %s game: %w", command, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: %s", ErrServer, resp.Error)
	}

	return that.gameLoop(ctx, *resp.Player)
}

// gameLoop redraws the board whenever the match changes and stops once it is decided.
func (that *Console) gameLoop(ctx context.Context, player entity.PlayerSlot) error {
	ticker := time.NewTicker(that.pollInterval)
	defer ticker.Stop()

	var prev string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		resp, err := that.client.GetGameState(player.MatchID)
		if err != nil {
			return fmt.Errorf("failed to poll game: %w", err)
		}

		if resp.IsError() {
			return fmt.Errorf("%w: %s", ErrServer, resp.Error)
		}

		game := resp.Game

		if game.Status == entity.StatusFinished {
			that.draw(player, resp.Board)
			that.printOutcome(player, game.Winner)
			return nil
		}

		snapshot := game.Status + "|" + string(game.Turn) + "|" + resp.Board
		if snapshot == prev {
			continue
		}
		prev = snapshot

		that.draw(player, resp.Board)

		if game.Status != entity.StatusOngoing || game.Turn != player.Mark {
			that.println("Waiting for opponent")
			continue
		}

		if err = that.takeTurn(player); err != nil {
			return err
		}

		// force a redraw after our own move, or a re-prompt after a rejected one
		prev = ""
	}
}

func (that *Console) takeTurn(player entity.PlayerSlot) error {
	that.println("Your choice?")

	line, err := that.readLine()
	if err != nil {
		return err
	}

	cell, err := strconv.Atoi(line)
	if err != nil {
		that.printf("Invalid move: %q is not a cell number\n", line)
		return nil
	}

	resp, err := that.client.SetTile(player.MatchID, cell)
	if err != nil {
		return fmt.Errorf("failed to send move: %w", err)
	}

	if resp.IsError() {
		that.printf("Invalid move: %s\n", resp.Error)
	}

	return nil
}

func (that *Console) draw(player entity.PlayerSlot, board string) {
	that.println(clearScreen)
	that.printf("game_id: %s\n\n%s\n\n", player.MatchID, board)
	that.printf("You are %s\n", player.Mark)
}

func (that *Console) printOutcome(player entity.PlayerSlot, winner entity.Mark) {
	switch winner {
	case player.Mark:
		that.println("You won")
	case entity.MarkTie:
		that.println("Draw")
	default:
		that.println("You lost")
	}
}

func (that *Console) readLine() (string, error) {
	if !that.in.Scan() {
		if err := that.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}

	return strings.TrimSpace(that.in.Text()), nil
}

func (that *Console) println(text string) {
	_, _ = fmt.Fprintln(that.out, text)
}

func (that *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(that.out, format, args...)
}
