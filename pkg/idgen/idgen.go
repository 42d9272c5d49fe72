package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator ID生成器接口
type Generator interface {
	// NewID 生成下一个唯一ID
	NewID() (string, error)
}

// GeneratorFunc 函数式 Generator
type GeneratorFunc func() (string, error)

func (f GeneratorFunc) NewID() (string, error) {
	return f()
}

// UUID 基于 uuid v4 的生成器
type UUID struct{}

// NewUUID 创建 uuid 生成器
func NewUUID() Generator {
	return UUID{}
}

func (UUID) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Sequence 确定性递增生成器，用于测试与种子数据
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence 创建递增生成器，生成 prefix-1, prefix-2 ...
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() (string, error) {
	return fmt.Sprintf("%s-%d", s.prefix, s.n.Add(1)), nil
}

// Kind 生成器类型
type Kind string

const (
	KindUUID      Kind = "uuid"
	KindSonyflake Kind = "sonyflake"
)

// Config 生成器配置
type Config struct {
	Kind      Kind   `mapstructure:"kind" validate:"omitempty,oneof=uuid sonyflake"`
	MachineID uint16 `mapstructure:"machine_id"`
}

// New 根据配置创建生成器
func New(cfg Config) (Generator, error) {
	switch cfg.Kind {
	case KindSonyflake:
		return NewSonyflake(cfg.MachineID)
	default:
		return NewUUID(), nil
	}
}
