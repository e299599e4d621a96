package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-picshare/internal/cache"
	"backend-picshare/internal/config"
	"backend-picshare/internal/db"
	"backend-picshare/internal/events"
	"backend-picshare/internal/logging"
	"backend-picshare/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

// Resources are the long-lived clients Run owns and closes on shutdown. Any
// of them may be nil.
type Resources struct {
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	NATS     *events.NATS
	Logger   zerolog.Logger
}

type mainDeps struct {
	loadConfig      func() config.Config
	newLogger       func(level string) zerolog.Logger
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	connectNATS     func(url string) (*events.NATS, error)
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, Resources, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		newLogger:       logging.New,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    cache.Connect,
		connectNATS:     events.ConnectNATS,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	log := deps.newLogger(cfg.LogLevel)

	res := Resources{Logger: log}

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Error().Err(err).Msg("postgres connection failed")
	}
	res.Postgres = pg

	res.Redis = deps.connectRedis(cfg)

	if cfg.NatsURL != "" {
		nc, err := deps.connectNATS(cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("nats connection failed, events disabled")
		}
		res.NATS = nc
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, res, signals, nil); err != nil {
		log.Error().Err(err).Msg("server exited with error")
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and the asset cleanup worker, then waits for a
// termination signal.
func Run(ctx context.Context, cfg config.Config, res Resources, signals <-chan os.Signal, listen ListenFunc) error {
	defer res.close()

	var publisher events.Publisher
	if res.NATS != nil {
		publisher = res.NATS
	}
	srv := server.NewServer(cfg, res.Postgres, res.Redis, publisher, res.Logger)

	if srv.Cleanup != nil {
		if err := srv.Cleanup.Start(cfg.AssetCleanupSchedule); err != nil {
			return err
		}
		// deferred after close, so it runs first: the worker must finish its
		// batch before the pool goes away
		defer srv.Cleanup.Stop()
	}

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return shutdownFn(srv.App, shutdownCtx)
}

func (r Resources) close() {
	if err := r.NATS.Close(); err != nil {
		r.Logger.Warn().Err(err).Msg("nats drain")
	}
	if r.Postgres != nil {
		r.Postgres.Close()
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
}
