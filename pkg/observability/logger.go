package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrVersion = "version"
	attrEnv     = "env"
	attrMode    = "mode"
)

// ServiceInfo is the process metadata attached to every log record.
type ServiceInfo struct {
	Name    string
	Version string
	Env     string
	Mode    AppMode
}

func (si ServiceInfo) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String(attrService, si.Name),
		slog.String(attrMode, string(si.Mode)),
	}

	if si.Version != "" {
		attrs = append(attrs, slog.String(attrVersion, si.Version))
	}

	if si.Env != "" {
		attrs = append(attrs, slog.String(attrEnv, si.Env))
	}

	return attrs
}

// TracingHandler is an [slog.Handler] that adds the trace_id and span_id of
// the active span to every record. Service attributes are attached once at
// construction so they stay at the top level under WithGroup.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner with trace context injection and the given
// service metadata.
func NewTracingHandler(inner slog.Handler, info ServiceInfo) *TracingHandler {
	return &TracingHandler{inner: inner.WithAttrs(info.attrs())}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds the span context, when valid, and delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if err := th.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs returns a handler whose inner handler carries attrs.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup returns a handler whose inner handler opens group name.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
