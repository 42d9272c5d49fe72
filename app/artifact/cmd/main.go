package main

import (
	"os"
	"time"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/pkg/app"
	"github.com/lk2023060901/xdooria-artifact/pkg/config"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/redis"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/sqlite"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
	"github.com/lk2023060901/xdooria-artifact/pkg/otel"
	"github.com/lk2023060901/xdooria-artifact/pkg/prometheus"
	"github.com/lk2023060901/xdooria-artifact/pkg/sentry"
	"github.com/spf13/pflag"
)

// StoreConfig 存储配置
type StoreConfig struct {
	Driver   string          `mapstructure:"driver" validate:"required,oneof=memory sqlite postgres"`
	Postgres postgres.Config `mapstructure:"postgres"`
	SQLite   sqlite.Config   `mapstructure:"sqlite"`
}

// CacheConfig Redis 读缓存配置
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Codec   string        `mapstructure:"codec" validate:"omitempty,oneof=json msgpack"`
	// Compression 缓存值压缩算法：none、snappy、zstd、lz4
	Compression string `mapstructure:"compression" validate:"omitempty,oneof=none snappy zstd lz4"`
	// Checksum 缓存值校验算法，校验失败视为未命中
	Checksum string       `mapstructure:"checksum" validate:"omitempty,oneof=none crc32 crc32c xxhash"`
	Redis    redis.Config `mapstructure:"redis"`
}

// SyncConfig 同步器配置
type SyncConfig struct {
	Concurrency int `mapstructure:"concurrency" validate:"gte=0"`
	// TemplateCacheSize 进程内模板缓存容量，0 表示不缓存
	TemplateCacheSize int `mapstructure:"template_cache_size" validate:"gte=0"`
}

// SeedConfig 种子数据配置
type SeedConfig struct {
	Fixture string `mapstructure:"fixture"`
}

// SecurityConfig 凭证账号密码配置
type SecurityConfig struct {
	HashPasswords bool `mapstructure:"hash_passwords"`
	// BcryptCost 为 0 时使用 bcrypt 默认值
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"omitempty,min=4,max=31"`
}

// Config 定义 Artifact 服务的完整配置结构
type Config struct {
	App   app.Config    `mapstructure:"app"`
	Log   logger.Config `mapstructure:"log"`
	IDGen idgen.Config  `mapstructure:"idgen"`

	// 存储与缓存
	Store StoreConfig `mapstructure:"store"`
	Cache CacheConfig `mapstructure:"cache"`

	Sync SyncConfig `mapstructure:"sync"`
	Seed SeedConfig `mapstructure:"seed"`

	Security SecurityConfig `mapstructure:"security"`

	// 指标配置
	Metrics    metrics.Config    `mapstructure:"metrics"`
	Prometheus prometheus.Config `mapstructure:"prometheus"`

	// 错误上报与链路追踪
	Sentry  sentry.Config `mapstructure:"sentry"`
	Tracing otel.Config   `mapstructure:"tracing"`
}

func main() {
	var (
		cfg      Config
		fixture  string
		exitCode int
	)
	pflag.StringVar(&fixture, "seed", "", "path to a YAML fixture imported at startup")

	// 1. 加载并校验配置
	if err := app.LoadConfig(&cfg); err != nil {
		panic(err)
	}
	if fixture != "" {
		cfg.Seed.Fixture = fixture
	}
	if err := config.Validate(&cfg); err != nil {
		panic(err)
	}

	// 2. 初始化主日志
	l, err := logger.New(&cfg.Log, logger.WithContextExtractor(otel.LogFields))
	if err != nil {
		panic(err)
	}

	// 3. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(&cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	// 4. 运行
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
		exitCode = 1
	}
	cleanup()
	os.Exit(exitCode)
}
