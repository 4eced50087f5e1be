package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/culturoquest/quest-server/internal/auth"
	"github.com/culturoquest/quest-server/internal/auth/jwt"
	"github.com/culturoquest/quest-server/internal/config"
	"github.com/culturoquest/quest-server/internal/content"
	"github.com/culturoquest/quest-server/internal/db/repository"
	"github.com/culturoquest/quest-server/internal/leaderboard"
	"github.com/culturoquest/quest-server/internal/logging"
	"github.com/culturoquest/quest-server/internal/profile"
	"github.com/culturoquest/quest-server/internal/server"
	ws "github.com/culturoquest/quest-server/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	lbBroadcaster *leaderboard.Broadcaster
	bgCancels     []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis, content, and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	graph, err := content.Load(cfg.Content.Dir)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	logger.Info().Int("stages", len(graph.Stages())).Msg("content loaded")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)

	authSvc := auth.NewService(userRepo, profileRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte(cfg.Security.JWTSecret),
			RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
			Issuer:        cfg.Name,
		},
	}, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	lbSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN:          cfg.Leaderboard.TopN,
		PubSubChannel: cfg.Leaderboard.PubSubChannel,
		KeyPrefix:     cfg.Leaderboard.KeyPrefix,
	})
	lbHandler := leaderboard.NewHTTPHandler(lbSvc, profileRepo, logger)

	profileSvc := profile.NewService(profileRepo, lbSvc, logger)
	profileHandlers := profile.NewHTTPHandlers(profileSvc, logger)

	hub := ws.NewHub(logger)
	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, hub, cfg.Leaderboard.PubSubChannel, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authHandlers, authSvc, profileHandlers, lbHandler, hub)

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		http:          apiServer,
		lbBroadcaster: lbBroadcaster,
		bgCancels:     make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}
}
