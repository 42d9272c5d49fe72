package otel

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// 日志中的链路字段名
const (
	LogKeyTraceID = "trace_id"
	LogKeySpanID  = "span_id"
)

// End 按错误设置 Span 状态后结束
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// LogFields 从 context 中的 Span 提取 trace_id、span_id
// 签名与 logger.ContextFieldExtractor 一致，无有效 Span 时返回 nil
func LogFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String(LogKeyTraceID, sc.TraceID().String()),
		zap.String(LogKeySpanID, sc.SpanID().String()),
	}
}
