package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mossy-p/dalmuti/config"
	"github.com/mossy-p/dalmuti/internal/archive"
	"github.com/mossy-p/dalmuti/internal/engine"
	"github.com/mossy-p/dalmuti/internal/handlers"
	"github.com/mossy-p/dalmuti/internal/redis"
	"github.com/mossy-p/dalmuti/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(environment string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	games, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		archiver engine.Archiver
		records  handlers.RecordSource
	)
	if cfg.ArchivePath != "" {
		arch, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return err
		}
		defer arch.Close()
		archiver, records = arch, arch
		logger.Info("game archive opened", zap.String("path", cfg.ArchivePath))
	}

	hub := handlers.NewHub(logger)
	defer hub.Close()

	eng := engine.New(games, engine.Options{
		InboxSize:       cfg.Engine.InboxSize,
		NextGameDelay:   cfg.Engine.NextGameDelay,
		TaxDisplayDelay: cfg.Engine.TaxDisplayDelay,
		IdleTimeout:     cfg.Engine.IdleTimeout,
		Notifier:        hub,
		Archiver:        archiver,
		Logger:          logger,
	})
	defer eng.Close()

	if err := eng.Resume(ctx); err != nil {
		logger.Warn("failed to resume room timers", zap.Error(err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	gameHandlers := handlers.NewGames(eng, handlers.NewSessions(cfg.JWTSecret, cfg.TokenTTL), records, logger)
	router := handlers.NewRouter(gameHandlers, hub, cfg.JWTSecret, cfg.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting game server", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore returns the configured room store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.StoreBackend == "memory" {
		logger.Warn("using in-memory store; rooms are lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Redis connection established", zap.String("host", cfg.Redis.Host))
	return redis.NewGameStore(client, cfg.RoomTTL), func() { _ = client.Close() }, nil
}
