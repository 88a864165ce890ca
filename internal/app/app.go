package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iamvkosarev/marvel-ai-chat/config"
	in_memory "github.com/iamvkosarev/marvel-ai-chat/internal/storage/in-memory"
	key_value "github.com/iamvkosarev/marvel-ai-chat/internal/storage/key-value"
	"github.com/iamvkosarev/marvel-ai-chat/internal/server"
	"github.com/iamvkosarev/marvel-ai-chat/internal/usecase"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

func Run(cfg *config.Config) error {
	logger := NewLogger(cfg.Log)
	slog.SetDefault(logger)

	chatSessionStorage, toolSessionStorage, closeStorage, err := newStorages(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	communicator, err := newCommunicator(cfg, logger)
	if err != nil {
		return err
	}

	chatSessionUsecase := usecase.NewChatSessionUsecase(
		usecase.ChatSessionUsecaseDeps{
			ChatSessionStorage: chatSessionStorage,
			Communicator:       communicator,
			Logger:             logger,
		}, cfg.Chat,
	)
	toolUsecase := usecase.NewToolUsecase(
		usecase.ToolUsecaseDeps{
			ToolSessionStorage: toolSessionStorage,
			Communicator:       communicator,
			Logger:             logger,
		},
	)

	srv := server.New(
		cfg.HTTP, server.ServerDeps{
			ChatSession: chatSessionUsecase,
			Tool:        toolUsecase,
			Logger:      logger,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("http server stopped: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down http server", "error", err)
	}
	toolUsecase.Wait()
	return nil
}

func newStorages(
	cfg config.Redis,
	logger *slog.Logger,
) (usecase.ChatSessionStorage, usecase.ToolSessionStorage, func(), error) {
	if cfg.Endpoint == "" {
		logger.Warn("redis endpoint is not set, sessions are kept in memory")
		return in_memory.NewAIChatStorage(), in_memory.NewToolSessionStorage(), func() {}, nil
	}

	rdb := redis.NewClient(
		&redis.Options{
			Addr:     cfg.Endpoint,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
	)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to redis %s: %w", cfg.Endpoint, err)
	}
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
	return key_value.NewAIChatStorage(rdb), key_value.NewToolSessionStorage(rdb), closeFn, nil
}

func newCommunicator(cfg *config.Config, logger *slog.Logger) (usecase.Communicator, error) {
	switch cfg.Marvel.Provider {
	case config.ProviderMarvel:
		return usecase.NewMarvelUsecase(cfg.Marvel, logger), nil
	case config.ProviderOpenAI:
		return usecase.NewOpenAIUsecase(cfg.OpenAI, logger), nil
	default:
		return nil, errors.New("unknown provider " + cfg.Marvel.Provider)
	}
}

// NewLogger builds the process logger from the log section of the config.
func NewLogger(cfg config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
