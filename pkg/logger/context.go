package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取字段的函数类型
// 例如链路追踪的 trace_id、span_id
type ContextFieldExtractor func(ctx context.Context) []zap.Field

// DefaultContextExtractor 默认的 context 提取器（不提取任何字段）
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	return nil
}

// WithContextExtractor 设置 *Context 方法使用的字段提取器
func WithContextExtractor(extractor ContextFieldExtractor) Option {
	return func(l *BaseLogger) {
		if extractor != nil {
			l.contextExtractor = extractor
		}
	}
}

// contextFields 合并 context 字段与调用方字段
func (l *BaseLogger) contextFields(ctx context.Context, keysAndValues []any) []zap.Field {
	fields := toZapFields(keysAndValues)
	if ctx == nil {
		return fields
	}
	extracted := l.contextExtractor(ctx)
	if len(extracted) == 0 {
		return fields
	}
	return append(extracted, fields...)
}

// DebugContext 记录 debug 级别日志，并从 context 中提取字段
func (l *BaseLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...any) {
	l.zl.Debug(msg, l.contextFields(ctx, keysAndValues)...)
}

// InfoContext 记录 info 级别日志，并从 context 中提取字段
func (l *BaseLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...any) {
	l.zl.Info(msg, l.contextFields(ctx, keysAndValues)...)
}

// WarnContext 记录 warn 级别日志，并从 context 中提取字段
func (l *BaseLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...any) {
	l.zl.Warn(msg, l.contextFields(ctx, keysAndValues)...)
}

// ErrorContext 记录 error 级别日志，并从 context 中提取字段
func (l *BaseLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...any) {
	l.zl.Error(msg, l.contextFields(ctx, keysAndValues)...)
}
