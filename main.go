package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-tcp-server/internal"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/config"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/console"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/tcp"
)

// main - is the entry point of the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "tictactoe-server",
		Short:         "Two-player tic-tac-toe over TCP, WebSocket and HTTP.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := initConfig(configPath)
			logger := initLogger(conf)

			if err := app.RunApp(cmd.Context(), logger, conf); err != nil {
				return fmt.Errorf("app run failed: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "./config.yml", "path to the YAML config file")

	cmd.AddCommand(newPlayCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

// newPlayCmd runs the terminal client against a TCP server.
func newPlayCmd() *cobra.Command {
	var (
		addr         string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Create or join a game from the terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := tcp.Dial(cmd.Context(), addr)
			if err != nil {
				return err
			}
			defer client.Close()

			return console.New(client, cmd.InOrStdin(), cmd.OutOrStdout(), pollInterval).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:3000", "TCP address of the game server")
	cmd.Flags().DurationVar(&pollInterval, "poll", console.DefaultPollInterval, "how often the board is refreshed")

	return cmd
}

// initialize config.
func initConfig(path string) *config.Config {
	return config.MustLoad(path)
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
