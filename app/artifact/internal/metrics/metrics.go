package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用
	Enabled bool `mapstructure:"enabled"`
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "artifact",
	}
}

// ArtifactMetrics artifact 服务指标
// 所有 Record 方法允许 nil 接收者，未启用指标时直接传 nil
type ArtifactMetrics struct {
	config *Config

	// 工厂指标
	FactoryTotal *prometheus.CounterVec // 工厂事件总数（按实体、事件）

	// 同步指标
	SyncTotal    *prometheus.CounterVec   // 同步操作总数（按实体、操作、结果）
	SyncDuration *prometheus.HistogramVec // 同步操作延迟

	// 数据库指标
	DBQueryTotal    *prometheus.CounterVec   // 数据库查询总数（按操作、结果）
	DBQueryDuration *prometheus.HistogramVec // 数据库查询延迟

	// 缓存指标
	CacheHitTotal  *prometheus.CounterVec // 缓存命中（按表）
	CacheMissTotal *prometheus.CounterVec // 缓存未命中（按表）
}

// New 创建指标
func New(cfg *Config) (*ArtifactMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge metrics config")
	}

	return &ArtifactMetrics{
		config: newCfg,

		FactoryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "factory_events_total",
				Help:      "工厂事件总数",
			},
			[]string{"entity", "event"}, // event: created/validated/failed
		),

		SyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "sync_operations_total",
				Help:      "同步操作总数",
			},
			[]string{"entity", "operation", "result"},
		),
		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: newCfg.Namespace,
				Name:      "sync_operation_duration_seconds",
				Help:      "同步操作延迟（秒）",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
			},
			[]string{"entity", "operation"},
		),

		DBQueryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "db_queries_total",
				Help:      "数据库查询总数",
			},
			[]string{"operation", "result"}, // operation: select/insert/update/delete/batch
		),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: newCfg.Namespace,
				Name:      "db_query_duration_seconds",
				Help:      "数据库查询延迟（秒）",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),

		CacheHitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "cache_hits_total",
				Help:      "缓存命中总数",
			},
			[]string{"table"},
		),
		CacheMissTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "cache_misses_total",
				Help:      "缓存未命中总数",
			},
			[]string{"table"},
		),
	}, nil
}

// Register 注册指标到 Prometheus Registry
func (m *ArtifactMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.FactoryTotal,
		m.SyncTotal,
		m.SyncDuration,
		m.DBQueryTotal,
		m.DBQueryDuration,
		m.CacheHitTotal,
		m.CacheMissTotal,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// RecordFactory 记录工厂事件
func (m *ArtifactMetrics) RecordFactory(entity, event string) {
	if m == nil {
		return
	}
	m.FactoryTotal.WithLabelValues(entity, event).Inc()
}

// RecordSync 记录同步操作
func (m *ArtifactMetrics) RecordSync(entity, operation string, success bool, duration float64) {
	if m == nil {
		return
	}
	m.SyncTotal.WithLabelValues(entity, operation, result(success)).Inc()
	m.SyncDuration.WithLabelValues(entity, operation).Observe(duration)
}

// RecordDBQuery 记录数据库查询
func (m *ArtifactMetrics) RecordDBQuery(operation string, success bool, duration float64) {
	if m == nil {
		return
	}
	m.DBQueryTotal.WithLabelValues(operation, result(success)).Inc()
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheHit 记录缓存命中
func (m *ArtifactMetrics) RecordCacheHit(table string) {
	if m == nil {
		return
	}
	m.CacheHitTotal.WithLabelValues(table).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *ArtifactMetrics) RecordCacheMiss(table string) {
	if m == nil {
		return
	}
	m.CacheMissTotal.WithLabelValues(table).Inc()
}
