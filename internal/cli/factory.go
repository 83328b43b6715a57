package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/tlisp"
	"github.com/aretw0/tlisp/internal/config"
	"github.com/aretw0/tlisp/internal/logging"
	"github.com/aretw0/tlisp/pkg/adapters/loam"
	"github.com/aretw0/tlisp/pkg/adapters/memory"
	"github.com/aretw0/tlisp/pkg/adapters/redis"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/observability"
	"github.com/aretw0/tlisp/pkg/persistence/middleware"
	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// App bundles an Interpreter with the library, store, metrics and logger chosen by the configuration.
type App struct {
	Config config.Config
	Interp *tlisp.Interpreter
	// Library is where named automata are loaded from.
	Library ports.LibraryLoader
	// Store is set when the library is writable (redis or memory).
	Store    ports.DefinitionStore
	Registry *prometheus.Registry
	Logger   *slog.Logger
	closers  []io.Closer
}

// NewApp wires cfg into an App. Library precedence: redis, then a loam directory, then memory.
func NewApp(ctx context.Context, cfg config.Config, debug bool) (*App, error) {
	app := &App{Config: cfg, Registry: prometheus.NewRegistry()}

	if err := app.initLogger(debug); err != nil {
		return nil, err
	}
	if err := app.initLibrary(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if app.Store != nil {
		app.Store = middleware.Chain(app.Store,
			middleware.NewValidationMiddleware(),
			middleware.NewInvalidationMiddleware(func(name string) { app.Interp.Forget(name) }),
		)
		app.Library = app.Store
	}

	metrics, err := observability.NewMetrics(app.Registry)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	hooks := metrics.Hooks()
	if debug {
		hooks = hooks.Merge(createDebugHooks(app.Logger))
	}

	app.Interp = tlisp.New(
		tlisp.WithLogger(app.Logger),
		tlisp.WithLibrary(app.Library),
		tlisp.WithLifecycleHooks(hooks),
		tlisp.WithStepBudget(cfg.StepBudget),
		tlisp.WithMaxDepth(cfg.MaxDepth),
	)
	return app, nil
}

func (a *App) initLogger(debug bool) error {
	level, err := logging.ParseLevel(a.Config.Log.Level)
	if err != nil {
		return err
	}
	if debug {
		level = slog.LevelDebug
	}
	if a.Config.Log.File == "" {
		a.Logger = logging.New(level)
		return nil
	}
	logger, closer, err := logging.NewWithFile(level, a.Config.Log.File)
	if err != nil {
		return err
	}
	a.Logger = logger
	a.closers = append(a.closers, closer)
	return nil
}

func (a *App) initLibrary(ctx context.Context) error {
	switch {
	case a.Config.Redis.Addr != "":
		var opts []redis.Option
		if a.Config.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(a.Config.Redis.Prefix))
		}
		if a.Config.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(a.Config.Redis.TTL))
		}
		store := redis.New(a.Config.Redis.Addr, a.Config.Redis.Password, a.Config.Redis.DB, opts...)
		a.closers = append(a.closers, store)
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("redis %s unreachable: %w", a.Config.Redis.Addr, err)
		}
		a.Library, a.Store = store, store
		a.Logger.Debug("Library Selected", "kind", "redis", "addr", a.Config.Redis.Addr)
	case a.Config.Library != "":
		lib, err := loam.Open(a.Config.Library)
		if err != nil {
			return fmt.Errorf("failed to open library %s: %w", a.Config.Library, err)
		}
		a.Library = lib
		a.Logger.Debug("Library Selected", "kind", "loam", "dir", a.Config.Library)
	default:
		store := memory.NewStore()
		a.Library, a.Store = store, store
	}
	return nil
}

// Close releases the store connection and the log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// createDebugHooks logs every run and step at debug level.
func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return observability.LogHooks(logger)
}
