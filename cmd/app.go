package cmd

import (
	"context"
	"fmt"

	"reconciler/core/config"
	"reconciler/core/database"
	"reconciler/core/logger"
	"reconciler/core/storage"
	"reconciler/core/tablecache"
	"reconciler/core/worker"
	"reconciler/feature/compare"

	"go.uber.org/zap"
)

// app bundles the components shared by the server and the CLI commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client storage.Client
	cache  *tablecache.Cache
	host   *worker.Host
}

// newApp loads the configuration and builds the cache, storage client and run host.
// Optional components that fail to initialize are logged and left out.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: l,
		host:   worker.NewHost(cfg.Reconcile.Timeout(), l),
		cache:  newCache(cfg, l),
	}

	if cfg.Storage.Enabled {
		client, err := newStorage(ctx, cfg.Storage)
		if err != nil {
			l.Warn("Object storage unavailable", zap.Error(err))
		} else {
			a.client = client
			l.Info("Connected to object storage", zap.String("bucket", cfg.Storage.Bucket))
		}
	}

	return a, nil
}

func newCache(cfg *config.Config, l *zap.Logger) *tablecache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if !cfg.Cache.Persist {
		return tablecache.New(cfg.Cache, nil, l)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		l.Warn("Cache database connection failed, caching in memory only", zap.Error(err))
		return tablecache.New(cfg.Cache, nil, l)
	}
	store, err := tablecache.NewGormStore(db)
	if err != nil {
		l.Warn("Cache database unusable, caching in memory only", zap.Error(err))
		return tablecache.New(cfg.Cache, nil, l)
	}

	l.Info("Persisting parsed tables", zap.String("driver", cfg.Database.Driver))
	return tablecache.New(cfg.Cache, store, l)
}

func newStorage(ctx context.Context, cfg storage.Config) (storage.Client, error) {
	client, err := storage.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}
	return client, nil
}

func (a *app) compareOptions() compare.Options {
	return compare.Options{
		Decoder:      a.cfg.Decoder,
		Reconcile:    a.cfg.Reconcile,
		ReportPrefix: a.cfg.Storage.ReportPrefix,
	}
}

func (a *app) compareFeature() *compare.Feature {
	return compare.NewFeature(a.client, a.cfg.Storage.Bucket, a.logger, a.cache, a.host, a.compareOptions())
}

func (a *app) service() *compare.Service {
	return compare.NewService(a.client, a.cfg.Storage.Bucket, a.logger, a.cache, a.host, a.compareOptions())
}

func (a *app) close() {
	a.host.Stop()
	_ = a.logger.Sync()
}
