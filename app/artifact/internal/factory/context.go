package factory

import (
	"sync/atomic"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

// 工厂事件
const (
	EventCreated   = "created"
	EventValidated = "validated"
	EventFailed    = "failed"
)

// Stats 工厂计数器，生命周期与所属 Context 相同
type Stats struct {
	created   atomic.Int64
	validated atomic.Int64
	failed    atomic.Int64
}

// StatsSnapshot 计数器快照
type StatsSnapshot struct {
	Created   int64 `json:"created"`
	Validated int64 `json:"validated"`
	Failed    int64 `json:"failed"`
}

// NewStats 创建计数器
func NewStats() *Stats {
	return &Stats{}
}

// Snapshot 读取当前值
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Created:   s.created.Load(),
		Validated: s.validated.Load(),
		Failed:    s.failed.Load(),
	}
}

func (s *Stats) add(event string) {
	switch event {
	case EventCreated:
		s.created.Add(1)
	case EventValidated:
		s.validated.Add(1)
	case EventFailed:
		s.failed.Add(1)
	}
}

// PasswordHasher 凭证密码哈希
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hashed string) error
}

// Context 工厂共享的依赖
type Context struct {
	Logger  logger.Logger
	Clock   idgen.Clock
	IDs     idgen.Generator
	Stats   *Stats
	Metrics *metrics.ArtifactMetrics

	// Passwords 为 nil 时凭证密码按原文保存
	Passwords PasswordHasher
}

// NewContext 创建工厂上下文，nil 依赖使用默认实现
func NewContext(l logger.Logger, clock idgen.Clock, ids idgen.Generator, m *metrics.ArtifactMetrics) *Context {
	if clock == nil {
		clock = idgen.SystemClock
	}
	if ids == nil {
		ids = idgen.NewUUID()
	}
	return &Context{
		Logger:  logger.OrNoop(l),
		Clock:   clock,
		IDs:     ids,
		Stats:   NewStats(),
		Metrics: m,
	}
}

// record 更新计数器与指标
func (c *Context) record(entity, event string) {
	c.Stats.add(event)
	c.Metrics.RecordFactory(entity, event)
}
