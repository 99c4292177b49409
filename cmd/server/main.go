package main

import (
	"context"
	"ctchen222/tictactoe-hub/internal/api/controller"
	"ctchen222/tictactoe-hub/internal/api/service"
	"ctchen222/tictactoe-hub/internal/config"
	"ctchen222/tictactoe-hub/internal/db"
	"ctchen222/tictactoe-hub/internal/endpoint"
	"ctchen222/tictactoe-hub/internal/events"
	"ctchen222/tictactoe-hub/internal/hub"
	"ctchen222/tictactoe-hub/internal/logger"
	"ctchen222/tictactoe-hub/internal/server"
	"ctchen222/tictactoe-hub/internal/telemetry"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env is fine; the environment and flags still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cmd := &cli.Command{
		Name:   "tictactoe-hub",
		Usage:  "serve tic-tac-toe sessions over WebSocket",
		Flags:  config.Flags(),
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}

	ctx, stopHub := context.WithCancel(ctx)
	defer stopHub()

	logger.Init(cfg.SlogLevel())

	shutdownOtel, err := telemetry.InitOtel(ctx, telemetry.Options{
		Enabled:  cfg.OtelEnabled,
		Endpoint: cfg.OtelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RedisConnString != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisConnString)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer rdb.Close()

		redisPublisher := events.NewRedisPublisher(rdb, 0)
		go redisPublisher.Run(ctx)
		publisher = redisPublisher
		slog.Info("Publishing session events to redis", "redis.addr", rdb.Options().Addr)
	}

	h := hub.NewHub(hub.Options{
		PermissiveMoves:  cfg.PermissiveMoves,
		LegacyErrorCodes: cfg.LegacyErrorCodes,
		Publisher:        publisher,
	})
	go h.Run(ctx)

	sessionController := controller.NewSessionController(service.NewSessionService(h))

	endpointCfg := endpoint.DefaultConfig()
	endpointCfg.SendBuffer = cfg.SendBuffer
	srv := server.NewServer(h, sessionController, server.Options{
		Endpoint:     endpointCfg,
		BotThinkTime: cfg.BotThinkTime,
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := srv.CloseConnections(shutdownCtx); err != nil {
		slog.Warn("WebSocket connections did not close in time", "error", err)
	}
	stopHub()
	<-h.Done()

	slog.Info("Server exiting")
	return nil
}
