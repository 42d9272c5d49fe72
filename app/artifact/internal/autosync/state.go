package autosync

import "sync"

// State 标识对应的持久化状态
type State int

const (
	// StateTransient 未保存或未知
	StateTransient State = iota
	// StatePersisted 与存储一致
	StatePersisted
	// StateStale 存储中已有更新版本，需要重新加载
	StateStale
)

func (s State) String() string {
	switch s {
	case StatePersisted:
		return "persisted"
	case StateStale:
		return "stale"
	default:
		return "transient"
	}
}

// tracker 按标识记录状态
type tracker struct {
	mu     sync.RWMutex
	states map[string]State
}

func newTracker() *tracker {
	return &tracker{states: make(map[string]State)}
}

func (t *tracker) get(id string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[id]
}

func (t *tracker) set(id string, s State) {
	if id == "" {
		return
	}
	t.mu.Lock()
	t.states[id] = s
	t.mu.Unlock()
}

func (t *tracker) forget(id string) {
	t.mu.Lock()
	delete(t.states, id)
	t.mu.Unlock()
}
