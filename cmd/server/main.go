package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/jdamiba/sandstone-project/internal/config"
	httpdelivery "github.com/jdamiba/sandstone-project/internal/delivery/http"
	"github.com/jdamiba/sandstone-project/internal/delivery/ws"
	"github.com/jdamiba/sandstone-project/internal/hub"
	"github.com/jdamiba/sandstone-project/internal/ratelimit"
	"github.com/jdamiba/sandstone-project/internal/repository/postgres"
	"github.com/jdamiba/sandstone-project/internal/usecase"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := createLogger(cfg.Debug)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Connected to database")

	var limiter ratelimit.Limiter = ratelimit.Noop{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		defer client.Close()
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit, cfg.RateWindow)
		logger.Info("Rate limiting enabled", zap.String("redis", cfg.RedisAddr))
	}

	docs := postgres.NewDocumentRepository(pool)
	collabs := postgres.NewCollaboratorRepository(pool)
	analytics := postgres.NewAnalyticsRepository(pool)

	documentUC := usecase.NewDocumentUseCase(docs, collabs, analytics, logger)
	changeUC := usecase.NewChangeUseCase(docs, collabs, logger)

	collabHub, err := hub.New(docs, collabs, logger)
	if err != nil {
		return fmt.Errorf("failed to create hub: %w", err)
	}
	wsRouter := ws.NewRouter(collabHub, logger)

	handler := httpdelivery.NewHandler(documentUC, changeUC, collabHub, logger)
	router := httpdelivery.NewRouter(handler, wsRouter.HandleConnection, httpdelivery.HeaderResolver{}, limiter, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		logger.Info("Starting server", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		case <-groupCtx.Done():
			return groupCtx.Err()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// createLogger creates a new logger.
func createLogger(debug bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	return logger
}
