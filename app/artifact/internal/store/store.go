package store

import (
	"context"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("store: record not found")

	// ErrConflict 主键或唯一约束冲突
	ErrConflict = errors.New("store: unique constraint violation")

	// ErrUnknownTable 未注册的表
	ErrUnknownTable = errors.New("store: unknown table")

	// ErrInvalidRecord 记录字段非法
	ErrInvalidRecord = errors.New("store: invalid record")

	// ErrInvalidKey 键不完整或包含未知列
	ErrInvalidKey = errors.New("store: invalid key")
)

// Record 一行数据，列名到规范值的映射
// 规范值：string、int64、time.Time（UTC）、[]byte（JSON）、nil
type Record map[string]any

// Clone 复制记录
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		out[k] = v
	}
	return out
}

// String 读取字符串列，nil 返回空串
func (r Record) String(col string) string {
	s, _ := r[col].(string)
	return s
}

// Int 读取整数列
func (r Record) Int(col string) int64 {
	n, _ := r[col].(int64)
	return n
}

// Key 主键（或带附加条件的主键），列名到值
type Key map[string]any

// Filter 等值过滤条件，空 Filter 匹配全部
type Filter map[string]any

// OpKind 批量操作类型
type OpKind int

const (
	OpCreate OpKind = iota + 1
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Op 单表操作
type Op struct {
	Kind  OpKind
	Table string
	Key   Key    // Update/Delete
	Data  Record // Create/Update
}

// Store 持久化接口
//
// Update/Delete 的 Key 必须包含完整主键，可以附加其他列作为条件（例如 version），
// 无匹配行时返回 ErrNotFound。版本化的表在 Update 时自动递增 version。
type Store interface {
	// Create 插入记录，返回带服务端字段（id、时间戳、version）的完整记录
	Create(ctx context.Context, table string, data Record) (Record, error)
	// Find 按主键查询，不存在时返回 nil, nil
	Find(ctx context.Context, table string, key Key) (Record, error)
	// List 按等值条件查询，按主键排序
	List(ctx context.Context, table string, filter Filter) ([]Record, error)
	// Update 更新记录，返回更新后的完整记录
	Update(ctx context.Context, table string, key Key, data Record) (Record, error)
	// Delete 删除记录
	Delete(ctx context.Context, table string, key Key) error
	// Batch 原子地执行一组操作，返回每个操作的结果记录（Delete 为 nil）
	Batch(ctx context.Context, ops []Op) ([]Record, error)
}
