// pkg/logger/noop.go
package logger

import "context"

// 确保 NoopLogger 实现了 Logger 接口
var _ Logger = (*NoopLogger)(nil)

// NoopLogger 空日志记录器
// 作为各模块未注入 logger 时的默认值
type NoopLogger struct{}

// NewNoop 创建空日志记录器
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(msg string, keysAndValues ...any) {}

func (l *NoopLogger) Info(msg string, keysAndValues ...any) {}

func (l *NoopLogger) Warn(msg string, keysAndValues ...any) {}

func (l *NoopLogger) Error(msg string, keysAndValues ...any) {}

func (l *NoopLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...any) {}

func (l *NoopLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...any) {}

func (l *NoopLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...any) {}

func (l *NoopLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...any) {}

func (l *NoopLogger) Named(name string) Logger { return l }

func (l *NoopLogger) WithFields(keysAndValues ...any) Logger { return l }

func (l *NoopLogger) Sync() error { return nil }

// OrNoop 在 l 为 nil 时返回空日志记录器
func OrNoop(l Logger) Logger {
	if l == nil {
		return NewNoop()
	}
	return l
}
