package lru

import (
	"container/list"
	"sync"
	"time"

	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
)

// Config LRU 配置
type Config struct {
	// MaxSize 最大容量
	MaxSize int `mapstructure:"max_size"`
	// DefaultTTL 默认过期时间，0 表示不过期
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// LRU 基于内存的 LRU 缓存，过期条目在访问时惰性清理
type LRU[K comparable, V any] struct {
	config Config
	clock  idgen.Clock
	cache  *list.List
	items  map[K]*list.Element
	mu     sync.Mutex

	onEvict func(key K, value V)
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // 零值表示不过期
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Option LRU 配置选项
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict 设置淘汰回调，回调在持锁状态下执行
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// WithClock 设置时钟
func WithClock[K comparable, V any](clock idgen.Clock) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.clock = clock
	}
}

// New 创建 LRU 缓存，MaxSize <= 0 时容量为 1
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) *LRU[K, V] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}
	c := &LRU[K, V]{
		config: cfg,
		clock:  idgen.SystemClock,
		cache:  list.New(),
		items:  make(map[K]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get 获取值
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if ent.expired(c.clock.Now()) {
			c.removeElement(elem)
			var zero V
			return zero, false
		}
		c.cache.MoveToFront(elem)
		return ent.value, true
	}

	var zero V
	return zero, false
}

// Set 设置值（使用默认 TTL）
func (c *LRU[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL 设置值（自定义 TTL，0 表示不过期）
func (c *LRU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.clock.Now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		c.cache.MoveToFront(elem)
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		return
	}

	elem := c.cache.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	for c.cache.Len() > c.config.MaxSize {
		c.removeElement(c.cache.Back())
	}
}

// GetOrLoad 命中时直接返回，否则调用 load 并缓存结果
// load 在锁外执行，并发未命中可能重复加载；ok 为 false 的结果不缓存
func (c *LRU[K, V]) GetOrLoad(key K, load func() (V, bool, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, ok, err := load()
	if err != nil || !ok {
		return v, ok, err
	}
	c.Set(key, v)
	return v, true, nil
}

// Delete 删除
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Len 返回当前缓存大小（含尚未清理的过期条目）
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// Purge 清理所有过期条目，返回清理数量
func (c *LRU[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for e := c.cache.Back(); e != nil; {
		prev := e.Prev()
		if e.Value.(*entry[K, V]).expired(now) {
			c.removeElement(e)
			removed++
		}
		e = prev
	}
	return removed
}

// Clear 清空缓存，不触发淘汰回调
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Init()
	c.items = make(map[K]*list.Element)
}

func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.cache.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
