// Package app wires the Scoop subsystems into a running service.
//
// The App struct owns the full lifecycle: New connects the stores and
// builds the HTTP surface, Run serves until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject in-memory stores via functional options
// (WithCatalogStore, WithInventoryStore, WithBooster). When an option is
// not provided, New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
	catalogpg "github.com/LBKdotdev/the-scoop/internal/catalog/postgres"
	"github.com/LBKdotdev/the-scoop/internal/config"
	"github.com/LBKdotdev/the-scoop/internal/health"
	"github.com/LBKdotdev/the-scoop/internal/inventory"
	inventorypg "github.com/LBKdotdev/the-scoop/internal/inventory/postgres"
	"github.com/LBKdotdev/the-scoop/internal/observe"
	"github.com/LBKdotdev/the-scoop/internal/resilience"
	"github.com/LBKdotdev/the-scoop/internal/server"
	"github.com/LBKdotdev/the-scoop/internal/voice/boost"
	"github.com/LBKdotdev/the-scoop/internal/voice/session"
)

// shutdownTimeout bounds the HTTP server drain when Run's context ends.
const shutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// Subsystems, initialised in New, torn down in Shutdown.
	catalog   catalog.Store
	inventory inventory.Store
	booster   session.Booster
	pool      *pgxpool.Pool
	httpSrv   *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithCatalogStore injects a catalog store instead of creating one from config.
func WithCatalogStore(s catalog.Store) Option {
	return func(a *App) { a.catalog = s }
}

// WithInventoryStore injects an inventory store instead of creating one from config.
func WithInventoryStore(s inventory.Store) Option {
	return func(a *App) { a.inventory = s }
}

// WithBooster injects a voice boost interpreter instead of creating one
// via the provider registry.
func WithBooster(b session.Booster) Option {
	return func(a *App) { a.booster = b }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// New creates an App by wiring all subsystems together. The registry maps
// boost provider names to LLM factories and is populated by main.
func New(ctx context.Context, cfg *config.Config, reg *config.Registry, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	// 1. Stores: postgres when a DSN is configured, in-memory otherwise.
	if err := a.initStores(ctx); err != nil {
		return nil, fmt.Errorf("app: init stores: %w", err)
	}

	// 2. Boost interpreter.
	if err := a.initBooster(reg); err != nil {
		return nil, fmt.Errorf("app: init booster: %w", err)
	}

	// 3. HTTP surface: API routes, health endpoints, metrics.
	a.initHTTP()

	return a, nil
}

// initStores connects the catalog and inventory stores. Injected stores win;
// otherwise a configured DSN selects postgres, and an empty DSN selects
// in-memory stores seeded from the config.
func (a *App) initStores(ctx context.Context) error {
	if a.catalog != nil && a.inventory != nil {
		return nil
	}

	dsn := a.cfg.Database.PostgresDSN
	if dsn == "" {
		if a.catalog == nil {
			mem := catalog.NewMemStore()
			if err := seedCatalog(ctx, mem, a.cfg.Catalog.SeedFlavors); err != nil {
				return err
			}
			a.catalog = mem
		}
		if a.inventory == nil {
			a.inventory = inventory.NewMemStore()
		}
		a.logger.Info("using in-memory stores", "seed_flavors", len(a.cfg.Catalog.SeedFlavors))
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	a.pool = pool
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	if a.catalog == nil {
		store := catalogpg.New(pool)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
		a.catalog = store
	}
	if a.inventory == nil {
		store := inventorypg.New(pool)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate inventory: %w", err)
		}
		a.inventory = store
	}
	a.logger.Info("connected to postgres")
	return nil
}

// initBooster builds the LLM boost interpreter when boost is enabled.
func (a *App) initBooster(reg *config.Registry) error {
	if a.booster != nil || !a.cfg.Boost.Enabled {
		return nil
	}
	if reg == nil {
		return fmt.Errorf("boost enabled but no provider registry given")
	}

	primary, err := reg.CreateLLM(a.cfg.Boost)
	if err != nil {
		return fmt.Errorf("create boost provider %q: %w", a.cfg.Boost.Provider, err)
	}

	// The breaker turns a persistently failing backend into an immediate
	// error, which the session engine reads as "no substitution" instead of
	// stalling every low-confidence parse on a dead endpoint.
	group := resilience.NewLLMFallback(primary, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  3,
			ResetTimeout: time.Minute,
		},
	})
	if a.cfg.Boost.Fallback.Provider != "" {
		fb, err := reg.CreateLLM(a.cfg.Boost.FallbackBoost())
		if err != nil {
			return fmt.Errorf("create boost fallback %q: %w", a.cfg.Boost.Fallback.Provider, err)
		}
		group.AddFallback(fb)
	}

	var opts []boost.Option
	if a.cfg.Boost.Temperature > 0 {
		opts = append(opts, boost.WithTemperature(a.cfg.Boost.Temperature))
	}
	a.booster = boost.New(group, opts...)
	a.logger.Info("boost interpreter ready",
		"provider", a.cfg.Boost.Provider,
		"model", a.cfg.Boost.Model,
		"fallback", a.cfg.Boost.Fallback.Provider,
	)
	return nil
}

// initHTTP assembles the route tree and the http.Server.
func (a *App) initHTTP() {
	srvOpts := []server.Option{server.WithLogger(a.logger)}
	if a.booster != nil {
		srvOpts = append(srvOpts, server.WithBooster(a.booster))
	}
	api := server.New(a.catalog, a.inventory, srvOpts...)

	mux := http.NewServeMux()
	api.Routes(mux)

	var checkers []health.Checker
	if a.pool != nil {
		checkers = append(checkers, health.Database(a.pool))
	}
	health.New(checkers...).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	a.httpSrv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run serves HTTP until ctx is cancelled, then drains the server. It returns
// ctx's error after a clean drain, or the server error if serving failed.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			a.logger.Info("serving HTTPS", "addr", a.httpSrv.Addr)
			err = a.httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			a.logger.Info("serving HTTP", "addr", a.httpSrv.Addr)
			err = a.httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})

	g.Go(func() error {
		<-gctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpSrv.Shutdown(drainCtx); err != nil {
			a.logger.Warn("server drain error", "err", err)
		}
		return gctx.Err()
	})

	return g.Wait()
}

// Shutdown tears down remaining subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.logger.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.logger.Warn("closer error", "index", i, "err", err)
			}
		}
		a.logger.Info("shutdown complete")
	})
	return shutdownErr
}

// Catalog returns the wired catalog store.
func (a *App) Catalog() catalog.Store { return a.catalog }

// Inventory returns the wired inventory store.
func (a *App) Inventory() inventory.Store { return a.inventory }

// seedCatalog inserts the configured seed flavors into an empty store.
func seedCatalog(ctx context.Context, store catalog.Store, seeds []config.SeedFlavor) error {
	for _, s := range seeds {
		if _, err := store.Create(ctx, s.Name, s.Category); err != nil {
			return fmt.Errorf("seed flavor %q: %w", s.Name, err)
		}
	}
	return nil
}
