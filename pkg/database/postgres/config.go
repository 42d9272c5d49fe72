package postgres

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/config"
)

// DBConfig 单个数据库实例配置
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"` // disable, require, verify-ca, verify-full
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// Config PostgreSQL 配置
type Config struct {
	// DSN 非空时优先于 Standalone
	DSN        string    `mapstructure:"dsn"`
	Standalone *DBConfig `mapstructure:"standalone"`

	Pool PoolConfig `mapstructure:"pool"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Standalone: &DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "xdooria",
			SSLMode: "disable",
		},
		Pool: PoolConfig{
			MaxConns:          25,
			MinConns:          2,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
		},
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
	}
}

// MergeConfig 合并配置
func MergeConfig(dst, src *Config) (*Config, error) {
	return config.MergeConfig(dst, src)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.DSN == "" {
		if err := c.Standalone.validate(); err != nil {
			return errors.Wrap(err, "invalid standalone config")
		}
	}
	if c.Pool.MaxConns <= 0 {
		return errors.Wrap(ErrInvalidConfig, "max_conns must be positive")
	}
	if c.Pool.MinConns < 0 || c.Pool.MinConns > c.Pool.MaxConns {
		return errors.Wrapf(ErrInvalidConfig, "min_conns %d out of range [0, %d]", c.Pool.MinConns, c.Pool.MaxConns)
	}
	return nil
}

// ConnString 构建连接字符串
func (c *Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	db := c.Standalone
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode,
		int(c.ConnectTimeout.Seconds()),
	)
}

// validate 验证单个数据库配置
func (d *DBConfig) validate() error {
	switch {
	case d == nil:
		return errors.Wrap(ErrInvalidConfig, "db config is nil")
	case d.Host == "":
		return errors.Wrap(ErrInvalidConfig, "host is empty")
	case d.Port <= 0 || d.Port > 65535:
		return errors.Wrapf(ErrInvalidConfig, "invalid port %d", d.Port)
	case d.User == "":
		return errors.Wrap(ErrInvalidConfig, "user is empty")
	case d.DBName == "":
		return errors.Wrap(ErrInvalidConfig, "db_name is empty")
	}
	return nil
}
