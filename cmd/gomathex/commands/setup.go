package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sandrolain/gomathex/pkg/catalog"
	"github.com/sandrolain/gomathex/pkg/config"
	"github.com/sandrolain/gomathex/pkg/datafinder"
	"github.com/sandrolain/gomathex/pkg/evaluator"
	"github.com/sandrolain/gomathex/pkg/ext"
	"github.com/sandrolain/gomathex/pkg/observability"
	"github.com/sandrolain/gomathex/pkg/types"
)

// engine is an evaluator together with the resources backing it.
type engine struct {
	*evaluator.Evaluator
	logger  *slog.Logger
	closers []func(context.Context) error
}

// Close releases every resource opened by newEngine.
func (e *engine) Close(ctx context.Context) error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// newEngine loads the configuration at path and builds an evaluator with its
// data finders and function catalogs. Logs go to stderr.
func newEngine(ctx context.Context, path string, stderr io.Writer) (_ *engine, err error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	e := &engine{logger: config.NewLogger(cfg.Log, stderr)}
	defer func() {
		if err != nil {
			_ = e.Close(ctx)
		}
	}()

	finder, err := e.dataFinder(cfg.Data)
	if err != nil {
		return nil, err
	}
	opts := append(config.Options(cfg),
		evaluator.WithLogger(e.logger),
		evaluator.WithMetrics(observability.NewMetricsRecorder()),
		evaluator.WithTracing(observability.NewSpanManager()),
	)
	if finder != nil {
		opts = append(opts, evaluator.WithDataFinder(finder))
	}
	e.Evaluator = evaluator.New(opts...)

	if err := e.registerCatalogs(ctx, cfg.Catalogs); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *engine) dataFinder(cfg *config.Data) (types.DataFinder, error) {
	var finders []types.DataFinder
	if len(cfg.Values) > 0 {
		finders = append(finders, datafinder.Map(cfg.Values))
	}
	if cfg.SQLite != nil {
		db, err := datafinder.OpenSQLite(cfg.SQLite.Path, cfg.SQLite.Table)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, func(context.Context) error { return db.Close() })
		finders = append(finders, db)
	}
	if cfg.Redis != nil {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		e.closers = append(e.closers, func(context.Context) error { return client.Close() })
		finders = append(finders, datafinder.NewRedis(client, datafinder.WithKeyPrefix(cfg.Redis.Prefix)))
	}
	switch len(finders) {
	case 0:
		return nil, nil
	case 1:
		return finders[0], nil
	default:
		return datafinder.Chain(finders...), nil
	}
}

// registerCatalogs registers Go extensions first, then WASM modules, then
// YAML catalogs, whose bodies may call functions from the former.
func (e *engine) registerCatalogs(ctx context.Context, cfg *config.Catalogs) error {
	for _, name := range cfg.Ext {
		c, ok := ext.ByName(name)
		if !ok {
			return fmt.Errorf("unknown extension catalog %q", name)
		}
		if err := e.RegisterFunctionsCatalog(c); err != nil {
			return fmt.Errorf("extension catalog %q: %w", name, err)
		}
	}
	for _, path := range cfg.WASM {
		mod, err := catalog.LoadWASM(ctx, path)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, mod.Close)
		if err := e.RegisterFunctionsCatalog(mod); err != nil {
			return fmt.Errorf("wasm catalog %s: %w", path, err)
		}
	}
	for _, path := range cfg.YAML {
		c, err := catalog.LoadYAML(path, e.Functions())
		if err != nil {
			return err
		}
		if err := e.RegisterFunctionsCatalog(c); err != nil {
			return fmt.Errorf("yaml catalog %s: %w", path, err)
		}
	}
	return nil
}

// withEngine runs fn with an engine built from the root options.
func withEngine(ctx context.Context, opts *rootOptions, stderr io.Writer, fn func(*engine) error) error {
	e, err := newEngine(ctx, opts.configPath, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(ctx); cerr != nil {
			e.logger.Warn("release resources", slog.String("error", cerr.Error()))
		}
	}()
	return fn(e)
}
