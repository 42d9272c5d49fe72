package model

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Instance 模板的铸造实例，归属于 (shard, player)
// 对应表：instance
type Instance struct {
	ID         string
	TemplateID string
	ShardID    string
	PlayerID   string
	State      InstanceState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Transition 返回迁移到目标状态后的副本
func (i Instance) Transition(to InstanceState) (Instance, error) {
	if !i.State.CanTransition(to) {
		return i, errors.Wrapf(ErrInvalidTransition, "%s -> %s", i.State, to)
	}
	i.State = to
	return i, nil
}
