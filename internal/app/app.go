package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/config"
	natsEvents "wallet-ledger/internal/adapter/events/nats"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Server is a long-running component supervised by App.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// App runs its servers until the context ends or one of them fails, then
// stops them and releases resources in reverse acquisition order.
type App struct {
	servers         []Server
	closers         []func()
	shutdownTimeout time.Duration
	log             zerolog.Logger
}

// NewApp creates an App over already-built servers.
func NewApp(log zerolog.Logger, shutdownTimeout time.Duration, servers ...Server) *App {
	return &App{servers: servers, shutdownTimeout: shutdownTimeout, log: log}
}

// OnClose registers a cleanup step. Steps run last-registered first.
func (a *App) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Run blocks until ctx is cancelled or a server exits with an error.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range a.servers {
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("Stopping servers")
		sctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range a.servers {
			if err := srv.Stop(sctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Build connects every dependency named in cfg and wires the HTTP server.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := NewApp(log, cfg.Server.ShutdownTimeout)
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, logger.Component(log, "postgres"))
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a.OnClose(pool.Close)
	checkers := []ports.HealthChecker{pgStorage.NewHealthCheck(pool)}

	var (
		idempCache ports.IdempotencyCache
		rateLimit  *redisStorage.RateLimitStore
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, logger.Component(log, "redis"))
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.OnClose(func() { _ = rdb.Close() })
		idempCache = redisStorage.NewIdempotencyCache(rdb)
		if cfg.RateLimit.Enabled {
			rateLimit = redisStorage.NewRateLimitStore(rdb)
		}
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	} else {
		log.Warn().Msg("Redis disabled, idempotency falls back to PostgreSQL only")
	}

	var publisher ports.EventPublisher
	if cfg.Events.NatsURL != "" {
		nc, err := natsEvents.Connect(cfg.Events.NatsURL, logger.Component(log, "nats"))
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		a.OnClose(func() { _ = nc.Drain() })
		publisher = natsEvents.NewPublisher(nc, cfg.Events.Subject)
		checkers = append(checkers, natsEvents.NewHealthCheck(nc))
	}

	walletSvc := service.NewWalletService(
		pgStorage.NewWalletRepo(pool),
		pgStorage.NewTransactionRepo(pool),
		pgStorage.NewIdempotencyRepo(pool),
		idempCache,
		service.NewArgon2PinHasher(cfg.Pin),
		pgStorage.NewTransactor(pool, cfg.Ledger.LockTimeout),
		publisher,
		cfg.Ledger,
		logger.Component(log, "ledger"),
	)
	auditSvc := service.NewAuditService(pgStorage.NewAuditRepo(pool), logger.Component(log, "audit"))
	// Registered after the pool, so pending audit writes drain before it closes.
	a.OnClose(auditSvc.Close)

	gin.SetMode(cfg.Server.Mode)
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		RateLimitStore: rateLimit,
		HealthCheckers: checkers,
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	a.servers = append(a.servers, NewHTTPServer(cfg.Server.Addr(), router, log))
	return a, nil
}
