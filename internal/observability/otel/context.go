package otel

import (
	"context"

	"github.com/commentguard/commentguard/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type handleKey struct{}

// Handle wraps tracer and shutdown
type Handle struct {
	Tracer   trace.Tracer
	Shutdown func(context.Context) error
}

// WithHandle stores the OTel Handle in context.
func WithHandle(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, handleKey{}, h)
}

// From retrieves the OTel Handle from context.
// Returns nil if OTel is not enabled.
func From(ctx context.Context) *Handle {
	h, _ := ctx.Value(handleKey{}).(*Handle)
	return h
}

// StartSpan opens a span named commentguard.<name> tagged with the op_id
// when a Handle is present. The returned func ends the span and records
// err. Without a Handle both are no-ops.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	h := From(ctx)
	if h == nil || h.Tracer == nil {
		return ctx, func(error) {}
	}

	attrs = append([]attribute.KeyValue{attribute.String("commentguard.op_id", observability.OpID(ctx))}, attrs...)
	ctx, span := h.Tracer.Start(ctx, ServiceName+"."+name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
