package store

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const fillStripes = 64

// fillGuard 防止未命中回填覆盖并发写入后的失效
// 每个分片维护失效代数：回填前后代数不一致时放弃回填
// 仅约束本进程内的读写，跨进程的陈旧回填由 TTL 兜底
type fillGuard struct {
	mu  [fillStripes]sync.RWMutex
	gen [fillStripes]uint64
}

func stripeOf(key string) int {
	return int(xxhash.Sum64String(key) % fillStripes)
}

// begin 记录读取底层存储前的代数
func (g *fillGuard) begin(key string) uint64 {
	i := stripeOf(key)
	g.mu[i].RLock()
	defer g.mu[i].RUnlock()
	return g.gen[i]
}

// fill 代数未变化时执行回填，返回是否执行
func (g *fillGuard) fill(key string, gen uint64, fn func()) bool {
	i := stripeOf(key)
	g.mu[i].RLock()
	defer g.mu[i].RUnlock()
	if g.gen[i] != gen {
		return false
	}
	fn()
	return true
}

// invalidate 递增代数并执行删除，与 fill 互斥
func (g *fillGuard) invalidate(key string, fn func()) {
	i := stripeOf(key)
	g.mu[i].Lock()
	defer g.mu[i].Unlock()
	g.gen[i]++
	fn()
}
