package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/yourusername/shopfront/configs"
	"github.com/yourusername/shopfront/internal/auth"
	"github.com/yourusername/shopfront/internal/cart"
	"github.com/yourusername/shopfront/internal/catalog"
	"github.com/yourusername/shopfront/internal/kv"
	"github.com/yourusername/shopfront/internal/logging"
	"github.com/yourusername/shopfront/internal/metrics"
	"github.com/yourusername/shopfront/internal/reconcile"
	"github.com/yourusername/shopfront/internal/service"
	"github.com/yourusername/shopfront/internal/storage"
	"github.com/yourusername/shopfront/pkg/cache"
)

// app holds the wired components of one process.
type app struct {
	cfg      *configs.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	kv        kv.Store
	client    *catalog.Client
	responses cache.ICache // nil when caching is disabled
	sessions  cache.ICache
	tokens    cache.ICache

	products *service.ProductService
	carts    *cart.Store
	auth     *auth.Authenticator
}

func newApp(cfg *configs.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	if a.kv, err = kv.Open(cfg.Store, logging.Named(logger, "kv")); err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	a.client, err = catalog.NewFromConfig(cfg.Catalog,
		catalog.WithMetrics(a.metrics),
		catalog.WithLogger(logging.Named(logger, "catalog")))
	if err != nil {
		return nil, err
	}

	var source reconcile.Catalog = a.client
	var remote service.RemoteProducts = a.client
	var invalidator service.Invalidator
	if cfg.Cache.Enable {
		a.responses, err = cache.New(&cache.Config{
			Name:            cfg.Cache.Name,
			MaxEntries:      cfg.Cache.MaxEntries,
			DefaultTTL:      cfg.Cache.DefaultTTL,
			EvictionPolicy:  cfg.Cache.EvictionPolicy,
			CleanupInterval: cfg.Cache.CleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("response cache: %w", err)
		}
		if err = a.metrics.RegisterCache(cfg.Cache.Name, a.responses); err != nil {
			return nil, err
		}
		cached := catalog.NewCached(a.client, a.responses, cfg.Cache.CategoriesTTL)
		source, remote, invalidator = cached, cached, cached
	}

	store := storage.NewProductStore(a.kv, cfg.Store.ProductsKey,
		storage.WithLogger(logging.Named(logger, "storage")),
		storage.WithMetrics(a.metrics))

	engine := reconcile.NewEngine(source, store,
		reconcile.WithPageSize(cfg.Pagination.ItemsPerPage, cfg.Pagination.MaxItemsPerPage),
		reconcile.WithLogger(logging.Named(logger, "reconcile")),
		reconcile.WithMetrics(a.metrics))

	opts := []service.Option{
		service.WithLogger(logging.Named(logger, "service")),
		service.WithMetrics(a.metrics),
	}
	if cfg.Catalog.MirrorWrites {
		opts = append(opts, service.WithMirror(a.client))
		if invalidator != nil {
			opts = append(opts, service.WithInvalidator(invalidator))
		}
	}
	a.products = service.NewProductService(engine, store, remote, opts...)

	a.carts = cart.New(a.kv, cfg.Store.CartKeyPrefix, cart.WithLogger(logging.Named(logger, "cart")))

	if a.sessions, err = cache.NewWithOptions("sessions",
		cache.WithMaxEntryCount(10000),
		cache.WithTTL(cfg.Server.SessionTTL),
		cache.WithCleanupInterval(time.Minute)); err != nil {
		return nil, err
	}
	if a.tokens, err = cache.NewWithOptions("tokens",
		cache.WithMaxEntryCount(0),
		cache.WithTTL(cfg.Auth.TokenTTL),
		cache.WithCleanupInterval(time.Minute)); err != nil {
		return nil, err
	}
	if a.auth, err = auth.New(cfg.Auth, a.tokens, logging.Named(logger, "auth")); err != nil {
		return nil, err
	}
	return a, nil
}

// applyConfig applies the settings that can change without a restart.
func (a *app) applyConfig(cfg *configs.Config, level zap.AtomicLevel, logger *zap.Logger) {
	if lvl, err := logging.ParseLevel(cfg.Log.Level); err == nil {
		if !verbose {
			level.SetLevel(lvl)
		}
	} else {
		logger.Warn("ignoring log level from reloaded config", zap.Error(err))
	}
	a.client.SetRateLimit(cfg.Catalog.RateLimit, cfg.Catalog.Burst)
	logger.Info("config reloaded",
		zap.String("log_level", cfg.Log.Level),
		zap.Float64("catalog_rate_limit", cfg.Catalog.RateLimit))
}

// Close releases the caches and the store.
func (a *app) Close() {
	for _, c := range []cache.ICache{a.responses, a.sessions, a.tokens} {
		if c != nil {
			_ = c.Close()
		}
	}
	if a.kv != nil {
		_ = a.kv.Close()
	}
}
