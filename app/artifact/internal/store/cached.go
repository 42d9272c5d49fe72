package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/redis"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
	"github.com/lk2023060901/xdooria-artifact/pkg/serializer"
)

// DefaultCachePrefix 缓存键前缀
const DefaultCachePrefix = "artifact:"

// KV 缓存后端，*redis.Client 实现了该接口
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

var (
	_ KV    = (*redis.Client)(nil)
	_ Store = (*Cached)(nil)
)

// Cached 按主键缓存 Find 结果的存储装饰器
// 写操作成功后删除对应缓存，缓存故障时回退到底层存储
// 读取期间发生失效的记录不回填
type Cached struct {
	inner   Store
	tables  *Tables
	kv      KV
	codec   serializer.Serializer
	ttl     time.Duration
	prefix  string
	logger  logger.Logger
	metrics *metrics.ArtifactMetrics
	guard   fillGuard
}

// NewCached 创建缓存装饰器，codec 为 nil 时使用 JSON
func NewCached(inner Store, tables *Tables, kv KV, codec serializer.Serializer, ttl time.Duration, l logger.Logger, m *metrics.ArtifactMetrics) *Cached {
	if codec == nil {
		codec = serializer.NewJSON()
	}
	return &Cached{
		inner:   inner,
		tables:  tables,
		kv:      kv,
		codec:   codec,
		ttl:     ttl,
		prefix:  DefaultCachePrefix,
		logger:  logger.OrNoop(l).Named("store.cache"),
		metrics: m,
	}
}

// Create 直接写入底层存储
func (c *Cached) Create(ctx context.Context, table string, data Record) (Record, error) {
	return c.inner.Create(ctx, table, data)
}

// Find 先查缓存，未命中时读取底层存储并回填
func (c *Cached) Find(ctx context.Context, table string, key Key) (Record, error) {
	def, err := c.tables.Def(table)
	if err != nil {
		return nil, err
	}
	nk, err := def.normalizeKey(key, true)
	if err != nil {
		return nil, err
	}
	cacheKey := c.cacheKey(def, nk)

	// 1. 查缓存
	if rec, ok := c.load(ctx, def, cacheKey); ok {
		c.metrics.RecordCacheHit(table)
		return rec, nil
	}
	c.metrics.RecordCacheMiss(table)

	// 2. 读底层存储
	gen := c.guard.begin(cacheKey)
	rec, err := c.inner.Find(ctx, table, nk)
	if err != nil || rec == nil {
		return rec, err
	}

	// 3. 回填，期间被失效则跳过
	if !c.guard.fill(cacheKey, gen, func() { c.store(ctx, cacheKey, rec) }) {
		c.logger.DebugContext(ctx, "cache fill skipped after concurrent write", "key", cacheKey)
	}
	return rec, nil
}

// List 不缓存
func (c *Cached) List(ctx context.Context, table string, filter Filter) ([]Record, error) {
	return c.inner.List(ctx, table, filter)
}

// Update 更新后失效缓存
func (c *Cached) Update(ctx context.Context, table string, key Key, data Record) (Record, error) {
	rec, err := c.inner.Update(ctx, table, key, data)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, table, key)
	return rec, nil
}

// Delete 删除后失效缓存
func (c *Cached) Delete(ctx context.Context, table string, key Key) error {
	if err := c.inner.Delete(ctx, table, key); err != nil {
		return err
	}
	c.invalidate(ctx, table, key)
	return nil
}

// Batch 成功后失效所有被修改的记录
func (c *Cached) Batch(ctx context.Context, ops []Op) ([]Record, error) {
	results, err := c.inner.Batch(ctx, ops)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if op.Kind == OpUpdate || op.Kind == OpDelete {
			c.invalidate(ctx, op.Table, op.Key)
		}
	}
	return results, nil
}

func (c *Cached) cacheKey(def *TableDef, key Key) string {
	return c.prefix + def.Name + ":" + def.keyString(key)
}

// load 读取并还原缓存记录，任何失败都视为未命中
func (c *Cached) load(ctx context.Context, def *TableDef, cacheKey string) (Record, bool) {
	raw, err := c.kv.Get(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, redis.ErrNil) {
			c.logger.WarnContext(ctx, "cache get failed", "key", cacheKey, "error", err)
		}
		return nil, false
	}

	var decoded map[string]any
	if err := c.codec.Deserialize(raw, &decoded); err != nil {
		c.logger.WarnContext(ctx, "cache decode failed", "key", cacheKey, "error", err)
		return nil, false
	}
	rec, err := def.normalizeRecord(Record(decoded))
	if err != nil {
		c.logger.WarnContext(ctx, "cached record is invalid", "key", cacheKey, "error", err)
		return nil, false
	}
	return rec, true
}

func (c *Cached) store(ctx context.Context, cacheKey string, rec Record) {
	raw, err := c.codec.Serialize(cacheable(rec))
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", "key", cacheKey, "error", err)
		return
	}
	if err := c.kv.Set(ctx, cacheKey, raw, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "cache set failed", "key", cacheKey, "error", err)
	}
}

func (c *Cached) invalidate(ctx context.Context, table string, key Key) {
	def, err := c.tables.Def(table)
	if err != nil {
		return
	}
	pk := make(Key, len(def.PrimaryKey))
	for _, col := range def.PrimaryKey {
		pk[col] = key[col]
	}
	nk, err := def.normalizeKey(pk, true)
	if err != nil {
		return
	}
	cacheKey := c.cacheKey(def, nk)
	c.guard.invalidate(cacheKey, func() {
		if _, err := c.kv.Del(ctx, cacheKey); err != nil {
			c.logger.WarnContext(ctx, "cache invalidate failed", "key", cacheKey, "error", err)
		}
	})
}

// cacheable 转换为编解码器都能还原的值：时间为 RFC3339Nano，JSON 为字符串
func cacheable(rec Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		switch tv := v.(type) {
		case time.Time:
			v = tv.Format(time.RFC3339Nano)
		case []byte:
			v = string(tv)
		}
		out[k] = v
	}
	return out
}
