package config

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，XDOORIA_STORE_DRIVER 对应 store.driver
const EnvPrefix = "XDOORIA"

// Manager 配置管理器，封装 viper
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	callbacks []func()
	watching  bool
}

// Option 配置选项函数
type Option func(*Manager)

// WithDefaults 设置默认配置值
func WithDefaults(defaults map[string]any) Option {
	return func(m *Manager) {
		for key, value := range defaults {
			m.v.SetDefault(key, value)
		}
	}
}

// WithOverrides 设置最高优先级的配置值，覆盖文件与环境变量
func WithOverrides(overrides map[string]any) Option {
	return func(m *Manager) {
		for key, value := range overrides {
			m.v.Set(key, value)
		}
	}
}

// WithConfigType 设置配置文件类型（yaml、json）
func WithConfigType(configType string) Option {
	return func(m *Manager) {
		m.v.SetConfigType(configType)
	}
}

// WithEnvPrefix 绑定环境变量
func WithEnvPrefix(prefix string) Option {
	return func(m *Manager) {
		m.v.SetEnvPrefix(prefix)
		m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		m.v.AutomaticEnv()
	}
}

// NewManager 创建配置管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{v: viper.New()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadFile 加载配置文件
func (m *Manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

// Unmarshal 解析整个配置到结构体
func (m *Manager) Unmarshal(v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.Unmarshal(v); err != nil {
		return errors.Wrap(err, "failed to unmarshal config")
	}
	return nil
}

// UnmarshalKey 解析指定路径的配置
func (m *Manager) UnmarshalKey(key string, v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.UnmarshalKey(key, v); err != nil {
		return errors.Wrapf(err, "failed to unmarshal key %s", key)
	}
	return nil
}

// GetString 获取字符串配置
func (m *Manager) GetString(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetString(key)
}

// IsSet 检查配置项是否存在
func (m *Manager) IsSet(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.IsSet(key)
}

// Watch 监听配置文件变化
func (m *Manager) Watch(callback func()) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, callback)
	start := !m.watching
	m.watching = true
	m.mu.Unlock()

	if !start {
		return
	}
	m.v.OnConfigChange(func(fsnotify.Event) {
		m.mu.RLock()
		callbacks := append([]func(){}, m.callbacks...)
		m.mu.RUnlock()

		for _, cb := range callbacks {
			cb()
		}
	})
	m.v.WatchConfig()
}

// Load 读取配置文件并与默认配置合并
// path 为空时只使用默认值和环境变量
func Load[T any](path string, defaults *T, opts ...Option) (*T, *Manager, error) {
	m := NewManager(append([]Option{WithEnvPrefix(EnvPrefix)}, opts...)...)
	if path != "" {
		if err := m.LoadFile(path); err != nil {
			return nil, nil, err
		}
	}

	loaded := new(T)
	if err := m.Unmarshal(loaded); err != nil {
		return nil, nil, err
	}

	merged, err := MergeConfig(defaults, loaded)
	if err != nil {
		return nil, nil, err
	}
	return merged, m, nil
}
