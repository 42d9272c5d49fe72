package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/autosync"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/factory"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/seed"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
	"github.com/lk2023060901/xdooria-artifact/pkg/app"
	"github.com/lk2023060901/xdooria-artifact/pkg/checksum"
	"github.com/lk2023060901/xdooria-artifact/pkg/compress"
	"github.com/lk2023060901/xdooria-artifact/pkg/crypto"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/redis"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/sqlite"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
	"github.com/lk2023060901/xdooria-artifact/pkg/otel"
	"github.com/lk2023060901/xdooria-artifact/pkg/prometheus"
	"github.com/lk2023060901/xdooria-artifact/pkg/sentry"
	"github.com/lk2023060901/xdooria-artifact/pkg/serializer"
)

// backend 按驱动选定的底层存储
type backend struct {
	store store.Store
	// sql 仅 sqlite/postgres 驱动非空，用于建表
	sql *store.SQL
}

// provideAppOptions 提供应用选项
func provideAppOptions(cfg *Config, l logger.Logger) []app.Option {
	return append([]app.Option{
		app.WithName(app.AppName),
		app.WithLogger(l),
	}, app.FromConfig(cfg.App)...)
}

// provideClock 提供单调递增的 UTC 时钟
func provideClock() idgen.Clock {
	return idgen.NewMonotonic(idgen.SystemClock)
}

// provideIDGenerator 提供主键生成器
func provideIDGenerator(cfg *Config) (idgen.Generator, error) {
	return idgen.New(cfg.IDGen)
}

// providePrometheus 提供 Prometheus 客户端
func providePrometheus(cfg *Config, l logger.Logger) (*prometheus.Client, error) {
	return prometheus.New(&cfg.Prometheus, l)
}

// provideSentry 提供错误上报客户端，未启用时返回 nil
func provideSentry(cfg *Config) (*sentry.Client, error) {
	if !cfg.Sentry.Enabled {
		return nil, nil
	}
	if cfg.Sentry.Release == "" {
		cfg.Sentry.Release = app.AppName + "@" + app.Version
	}
	return sentry.New(&cfg.Sentry)
}

// provideTracer 提供链路追踪，未启用时 Tracer 为 noop
func provideTracer(cfg *Config) (*otel.TracerProvider, error) {
	return otel.New(&cfg.Tracing)
}

// provideMetrics 提供指标，未启用时返回 nil
func provideMetrics(cfg *Config, prom *prometheus.Client) (*metrics.ArtifactMetrics, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}
	m, err := metrics.New(&cfg.Metrics)
	if err != nil {
		return nil, err
	}
	if err := m.Register(prom.Registry()); err != nil {
		return nil, errors.Wrap(err, "failed to register artifact metrics")
	}
	return m, nil
}

// provideBackend 按配置的驱动打开底层存储
func provideBackend(cfg *Config, tables *store.Tables, l logger.Logger, m *metrics.ArtifactMetrics) (*backend, func(), error) {
	ctx := context.Background()

	switch cfg.Store.Driver {
	case "sqlite":
		client, err := sqlite.Open(ctx, &cfg.Store.SQLite)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewSQLite(client, tables, l, m)
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Error("failed to close sqlite", "error", err)
			}
		}
		return &backend{store: s, sql: s}, cleanup, nil

	case "postgres":
		client, err := postgres.New(ctx, &cfg.Store.Postgres)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewPostgres(client, tables, l, m)
		return &backend{store: s, sql: s}, client.Close, nil

	case "memory", "":
		return &backend{store: store.NewMemory(tables, l)}, func() {}, nil

	default:
		return nil, nil, errors.Newf("unknown store driver %q", cfg.Store.Driver)
	}
}

// provideStore 在底层存储外叠加可选的 Redis 读缓存
func provideStore(cfg *Config, b *backend, tables *store.Tables, l logger.Logger, m *metrics.ArtifactMetrics) (store.Store, func(), error) {
	if !cfg.Cache.Enabled {
		return b.store, func() {}, nil
	}

	codec, err := serializer.ByName(cfg.Cache.Codec)
	if err != nil {
		return nil, nil, err
	}
	codec, err = serializer.WithCompression(codec, compress.Type(cfg.Cache.Compression))
	if err != nil {
		return nil, nil, err
	}
	codec, err = serializer.WithChecksum(codec, checksum.Type(cfg.Cache.Checksum))
	if err != nil {
		return nil, nil, err
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Error("failed to close redis", "error", err)
		}
	}
	return store.NewCached(b.store, tables, client, codec, cfg.Cache.TTL, l, m), cleanup, nil
}

// provideFactoryContext 提供工厂共享上下文
func provideFactoryContext(cfg *Config, l logger.Logger, clock idgen.Clock, ids idgen.Generator, m *metrics.ArtifactMetrics) *factory.Context {
	fctx := factory.NewContext(l, clock, ids, m)
	if cfg.Security.HashPasswords {
		fctx.Passwords = crypto.NewBcryptHasher(crypto.WithCost(cfg.Security.BcryptCost))
	}
	return fctx
}

// provideSyncer 提供同步器
func provideSyncer(cfg *Config, st store.Store, fctx *factory.Context, tp *otel.TracerProvider) *autosync.Syncer {
	return autosync.New(st, fctx,
		autosync.WithConcurrency(cfg.Sync.Concurrency),
		autosync.WithTemplateCache(cfg.Sync.TemplateCacheSize),
		autosync.WithTracer(tp.Tracer("autosync")),
	)
}

// provideAppComponents 组装启动任务、服务与清理组件
func provideAppComponents(
	cfg *Config,
	b *backend,
	seeder *seed.Seeder,
	fctx *factory.Context,
	prom *prometheus.Client,
	reporter *sentry.Client,
	tp *otel.TracerProvider,
	l logger.Logger,
) app.AppComponents {
	var tasks []app.Task

	// 1. 建表
	if b.sql != nil {
		tasks = append(tasks, app.NewTask("migrate", b.sql.Migrate))
	}

	// 2. 导入种子数据
	if cfg.Seed.Fixture != "" {
		tasks = append(tasks, app.NewTask("seed", func(ctx context.Context) error {
			fx, err := seed.LoadFixture(cfg.Seed.Fixture)
			if err != nil {
				return err
			}
			report, err := seeder.Run(ctx, fx)
			if err != nil {
				return err
			}
			return report.Err()
		}))
	}

	// 3. 输出工厂统计
	tasks = append(tasks, app.NewTask("stats", func(context.Context) error {
		snap := fctx.Stats.Snapshot()
		l.Info("factory stats", "created", snap.Created, "validated", snap.Validated, "failed", snap.Failed)
		return nil
	}))

	for i, t := range tasks {
		tasks[i] = reportedTask{Task: t, reporter: reporter}
	}

	comps := app.AppComponents{
		Tasks:   tasks,
		Closers: []app.Closer{app.MapCloser(prom), app.MapCloser(reporter), app.MapCloser(tp)},
	}
	if cfg.Prometheus.HTTPServer.Enabled {
		comps.Servers = append(comps.Servers, prom)
	}
	return comps
}

// reportedTask 将任务失败与 panic 上报到 Sentry
type reportedTask struct {
	app.Task
	reporter *sentry.Client
}

func (t reportedTask) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.reporter.RecoverWithContext(r)
			err = errors.Newf("task %s panicked: %v", t.Name(), r)
		}
	}()
	if err = t.Task.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.reporter.CaptureException(err, map[string]string{"task": t.Name()})
	}
	return err
}
