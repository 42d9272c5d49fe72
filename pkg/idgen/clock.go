package idgen

import (
	"sync"
	"time"
)

// Clock 时间源接口，存储层用它生成 createdAt/updatedAt
type Clock interface {
	Now() time.Time
}

// ClockFunc 函数式 Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock 系统时钟，统一为 UTC 并截断到微秒（postgres timestamptz 精度）
var SystemClock Clock = ClockFunc(func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
})

// ManualClock 手动推进的时钟，用于测试
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock 创建手动时钟
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 推进时钟
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Monotonic 保证返回值严格递增，同一时刻的连续调用至少相差 1 微秒
type Monotonic struct {
	base Clock
	mu   sync.Mutex
	last time.Time
}

// NewMonotonic 包装一个时钟
func NewMonotonic(base Clock) *Monotonic {
	return &Monotonic{base: base}
}

func (m *Monotonic) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.base.Now()
	if !now.After(m.last) {
		now = m.last.Add(time.Microsecond)
	}
	m.last = now
	return now
}
