package application

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/config"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/registry"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/repository"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/dispatch"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/rest"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/tcp"
	"github.com/rocketscienceinc/tictactoe-tcp-server/transport/websocket"
)

// RunApp - runs the application until ctx is canceled, SIGINT/SIGTERM arrives or a server fails.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var resultRepo repository.ResultRepository

	if conf.Redis.Enabled {
		redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		resultRepo = repository.NewResultRepository(redisStorage, conf.Redis.ResultTTL)
		log.Info("Match results are archived in Redis", "addr", conf.Redis.GetRedisAddr())
	}

	matches := registry.New(registry.Options{
		Strict:  !conf.Match.Permissive,
		IdleTTL: conf.Match.IdleTTL,
	})

	gameUseCase := usecase.NewGameManager(logger, matches, resultRepo)
	dispatcher := dispatch.New(logger, gameUseCase)

	tcpServer := tcp.New(logger, dispatcher)
	wsServer := websocket.New(logger, dispatcher)
	httpServer := rest.New(logger, gameUseCase)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		if err := tcpServer.Start(ctx, conf.TCPPort); err != nil {
			return fmt.Errorf("TCP server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if err := wsServer.Start(ctx, conf.SocketPort); err != nil {
			return fmt.Errorf("WebSocket server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := httpServer.Start(ctx, conf.HTTPPort); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	log.Info("Application stopped")

	return nil
}
