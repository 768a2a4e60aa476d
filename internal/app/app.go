package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/auth"
	"github.com/gokatarajesh/question-bank/internal/config"
	"github.com/gokatarajesh/question-bank/internal/creator"
	"github.com/gokatarajesh/question-bank/internal/dashboard"
	"github.com/gokatarajesh/question-bank/internal/db/repository"
	"github.com/gokatarajesh/question-bank/internal/events"
	"github.com/gokatarajesh/question-bank/internal/logging"
	"github.com/gokatarajesh/question-bank/internal/metrics"
	"github.com/gokatarajesh/question-bank/internal/question"
	"github.com/gokatarajesh/question-bank/internal/server"
	ws "github.com/gokatarajesh/question-bank/pkg/http/ws"
)

// Application aggregates shared infrastructure (store, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	store question.Store
	hub   *ws.Hub
	http  *http.Server

	broadcaster *events.Broadcaster
	bgCancels   []context.CancelFunc
}

// New bootstraps the store, optional Postgres/Redis, services and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Str("store_driver", cfg.Store.Driver).Msg("starting application bootstrap")

	a := &Application{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	checks := map[string]server.Check{}

	if cfg.Store.Driver == config.StoreDriverPostgres {
		pool, err := pgxpool.New(ctx, cfg.Postgres.PoolDSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		checks["postgres"] = pool.Ping
	}

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		client := a.redis
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	store, err := OpenStore(cfg, a.pool)
	if err != nil {
		return nil, err
	}
	if a.redis != nil {
		store = question.NewCachedStore(store, question.NewCache(a.redis, cfg.Redis.CacheTTL), logger)
	}
	a.store = metrics.InstrumentStore(store, cfg.Store.Driver)

	a.hub = ws.NewHub(logger)
	var publisher question.ChangePublisher
	if a.redis != nil {
		publisher = events.NewRedisPublisher(a.redis, cfg.Redis.Channel)
		a.broadcaster = events.NewBroadcaster(a.redis, a.hub, cfg.Redis.Channel, logger)
	} else {
		publisher = events.NewHubPublisher(a.hub, logger)
	}

	questionSvc := question.NewService(a.store, logger, question.ServiceOptions{Publisher: publisher})

	authSvc, err := auth.NewService(cfg.Security, logger)
	if err != nil {
		return nil, err
	}
	if authSvc.Enabled() {
		logger.Info().Str("admin", cfg.Security.AdminUsername).Msg("write endpoints require a bearer token")
	} else {
		logger.Warn().Msg("JWT_SECRET not configured; write endpoints are open")
	}

	taxonomy, err := creator.LoadTaxonomy(cfg.Creator.TaxonomyFile)
	if err != nil {
		return nil, err
	}
	drafts, err := creator.OpenDraftStore(cfg.Creator.DraftsPath)
	if err != nil {
		return nil, fmt.Errorf("open drafts: %w", err)
	}
	creatorSvc := creator.NewService(questionSvc, drafts, taxonomy, logger)
	dashboardSvc := dashboard.NewService(questionSvc, cfg.Dashboard.RecentLimit)

	routes := server.Routes{
		Questions: question.NewHTTPHandler(questionSvc, logger),
		Creator:   creator.NewHTTPHandler(creatorSvc, logger),
		Dashboard: dashboard.NewHTTPHandler(dashboardSvc, logger),
		Auth:      auth.NewHTTPHandlers(authSvc, logger),
		Stream:    ws.StreamHandler(a.hub, ws.NewUpgrader(cfg.CORS.AllowedOrigins), logger),
		Guard:     auth.RequireAdmin(authSvc, logger),
	}
	a.http = server.NewHTTPServer(cfg, logger, routes, checks)

	ok = true
	return a, nil
}

// OpenStore builds the backend selected by STORE_DRIVER. pool is required for postgres.
func OpenStore(cfg *config.App, pool *pgxpool.Pool) (question.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFile:
		store, err := question.OpenFileStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open question store: %w", err)
		}
		return store, nil
	case config.StoreDriverMemory:
		store, err := question.NewMemoryStore()
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreDriverPostgres:
		if pool == nil {
			return nil, errors.New("postgres driver needs a connection pool")
		}
		return repository.NewQuestionRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Handler exposes the HTTP handler chain, mainly for tests.
func (a *Application) Handler() http.Handler { return a.http.Handler }

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	a.Shutdown(a.cfg.GracefulShutdownTimeout)
	return runErr
}

// Shutdown drains HTTP, stops workers and releases the store and connections.
func (a *Application) Shutdown(timeout time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	for _, cancel := range a.bgCancels {
		cancel()
	}
	a.hub.CloseAll()
	a.closeResources()
	a.logger.Info().Msg("shutdown complete")
}

func (a *Application) closeResources() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error().Err(err).Msg("store close error")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.broadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.broadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("events broadcaster stopped")
			}
		}()
	}
}
