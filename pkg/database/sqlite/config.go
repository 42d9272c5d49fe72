package sqlite

import (
	"fmt"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/config"
)

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("sqlite: invalid config")

// Config SQLite 配置
type Config struct {
	// Path 数据库文件路径，":memory:" 为内存库
	Path         string        `mapstructure:"path"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
	JournalMode  string        `mapstructure:"journal_mode"` // WAL, DELETE
	MaxOpenConns int           `mapstructure:"max_open_conns"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Path:         "artifact.db",
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
		MaxOpenConns: 1,
	}
}

// MergeConfig 合并配置
func MergeConfig(dst, src *Config) (*Config, error) {
	return config.MergeConfig(dst, src)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.Wrap(ErrInvalidConfig, "path is empty")
	}
	if c.MaxOpenConns <= 0 {
		return errors.Wrap(ErrInvalidConfig, "max_open_conns must be positive")
	}
	return nil
}

// DSN 构建 modernc 驱动的连接串
func (c *Config) DSN() string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	params.Add("_pragma", "foreign_keys(1)")
	if c.JournalMode != "" && c.Path != ":memory:" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	return c.Path + "?" + params.Encode()
}
