package model

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidTransition 实例状态迁移不合法
var ErrInvalidTransition = errors.New("invalid instance state transition")

// FieldError 字段级错误，Path 使用 json 字段名，例如 parts[0].instanceId
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ErrorList 有序的字段错误列表
type ErrorList []FieldError

// Add 追加错误
func (l *ErrorList) Add(path, format string, args ...any) {
	*l = append(*l, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Append 追加另一个列表，可选路径前缀
func (l *ErrorList) Append(prefix string, other ErrorList) {
	for _, e := range other {
		if prefix != "" {
			if e.Path == "" {
				e.Path = prefix
			} else {
				e.Path = prefix + "." + e.Path
			}
		}
		*l = append(*l, e)
	}
}

// Empty 是否为空
func (l ErrorList) Empty() bool {
	return len(l) == 0
}

// Messages 返回 "path: message" 形式的列表
func (l ErrorList) Messages() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.String()
	}
	return out
}

// Has 是否存在指定路径的错误
func (l ErrorList) Has(path string) bool {
	for _, e := range l {
		if e.Path == path {
			return true
		}
	}
	return false
}

func (l ErrorList) Error() string {
	return strings.Join(l.Messages(), "; ")
}

// ValidationError 结构或领域规则校验失败
type ValidationError struct {
	Entity string
	Errors ErrorList
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Entity, e.Errors.Error())
}

// NotFoundError 存储中不存在指定标识
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// PersistenceError 存储拒绝了操作
type PersistenceError struct {
	Op    string
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConstructionError 构造参数非法（调用方违约）
type ConstructionError struct {
	Entity string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct %s: %s", e.Entity, e.Reason)
}

// NewConstructionError 创建构造错误
func NewConstructionError(entity, format string, args ...any) *ConstructionError {
	return &ConstructionError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError 乐观锁版本冲突，本地副本已过期
type ConflictError struct {
	Entity string
	ID     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q was modified concurrently", e.Entity, e.ID)
}
