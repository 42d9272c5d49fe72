package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

// Config 应用运行参数
type Config struct {
	// StopTimeout 服务优雅停止的等待时间
	StopTimeout time.Duration `mapstructure:"stop_timeout" validate:"gte=0"`
	// TaskTimeout 单个启动任务的最长执行时间，0 表示不限制
	TaskTimeout time.Duration `mapstructure:"task_timeout" validate:"gte=0"`
}

// Options 应用程序配置选项
type Options struct {
	ID          string
	Name        string
	Version     string
	StopTimeout time.Duration
	TaskTimeout time.Duration
	Logger      logger.Logger
}

// Option 定义配置函数
type Option func(*Options)

// DefaultOptions 返回默认配置
func DefaultOptions() Options {
	return Options{
		ID:          uuid.New().String(),
		Name:        AppName,
		Version:     Version,
		StopTimeout: 30 * time.Second,
	}
}

// FromConfig 将配置转换为选项，零值保持默认
func FromConfig(cfg Config) []Option {
	var opts []Option
	if cfg.StopTimeout > 0 {
		opts = append(opts, WithStopTimeout(cfg.StopTimeout))
	}
	if cfg.TaskTimeout > 0 {
		opts = append(opts, WithTaskTimeout(cfg.TaskTimeout))
	}
	return opts
}

// WithLogger 设置应用日志器
func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithID 设置应用 ID
func WithID(id string) Option {
	return func(o *Options) { o.ID = id }
}

// WithName 设置应用名称
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithStopTimeout 设置优雅停止超时时间
func WithStopTimeout(t time.Duration) Option {
	return func(o *Options) { o.StopTimeout = t }
}

// WithTaskTimeout 设置单个任务的超时时间
func WithTaskTimeout(t time.Duration) Option {
	return func(o *Options) { o.TaskTimeout = t }
}
