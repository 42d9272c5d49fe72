package sentry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
)

// Client Sentry 客户端，nil 客户端的所有方法均为空操作
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	mu    sync.RWMutex
	hooks []EventHook

	stats struct {
		eventsTotal    atomic.Uint64
		eventsCaptured atomic.Uint64
		eventsDropped  atomic.Uint64
	}
}

// New 创建 Sentry 客户端
func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg}

	// 1. 创建 SDK 客户端，钩子在发送前同步执行
	opts := cfg.toClientOptions()
	opts.BeforeSend = func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		c.trigger(event)
		return event
	}
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sentry client")
	}

	// 2. 使用独立的 Hub，不污染全局状态
	c.hub = sentry.NewHub(client, sentry.NewScope())
	c.hub.ConfigureScope(func(scope *sentry.Scope) {
		for key, value := range cfg.Tags {
			scope.SetTag(key, value)
		}
	})
	return c, nil
}

// CaptureException 捕获错误，tags 仅作用于本次事件
func (c *Client) CaptureException(err error, tags map[string]string) *sentry.EventID {
	if c == nil || err == nil || c.closed.Load() {
		return nil
	}
	var id *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		id = c.hub.CaptureException(err)
	})
	return c.count(id)
}

// CaptureMessage 捕获消息
func (c *Client) CaptureMessage(message string, level Level, tags map[string]string) *sentry.EventID {
	if c == nil || c.closed.Load() {
		return nil
	}
	var id *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level.toSentryLevel())
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		id = c.hub.CaptureMessage(message)
	})
	return c.count(id)
}

// RecoverWithContext 上报 panic，不重新抛出
func (c *Client) RecoverWithContext(recovered any) *sentry.EventID {
	if c == nil || recovered == nil || c.closed.Load() {
		return nil
	}
	return c.count(c.hub.RecoverWithContext(context.Background(), recovered))
}

// RegisterHook 注册事件钩子
func (c *Client) RegisterHook(hook EventHook) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.hooks = append(c.hooks, hook)
	c.mu.Unlock()
}

// Flush 等待所有事件上报完成
func (c *Client) Flush(timeout time.Duration) bool {
	if c == nil {
		return true
	}
	return c.hub.Flush(timeout)
}

// Close 刷新并关闭客户端
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	c.hub.Flush(c.config.ShutdownTimeout)
	return nil
}

// Stats 获取统计信息
func (c *Client) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		EventsTotal:    c.stats.eventsTotal.Load(),
		EventsCaptured: c.stats.eventsCaptured.Load(),
		EventsDropped:  c.stats.eventsDropped.Load(),
	}
}

func (c *Client) count(id *sentry.EventID) *sentry.EventID {
	c.stats.eventsTotal.Add(1)
	if id != nil && *id != "" {
		c.stats.eventsCaptured.Add(1)
	} else {
		c.stats.eventsDropped.Add(1)
	}
	return id
}

func (c *Client) trigger(event *sentry.Event) {
	c.mu.RLock()
	hooks := c.hooks
	c.mu.RUnlock()
	for _, h := range hooks {
		h(event)
	}
}
