package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/stategraph/pkg/domain"
)

// tracerName is the instrumentation scope name for node tracing.
const tracerName = "github.com/aretw0/stategraph"

// Tracing returns middleware that wraps node execution in an OpenTelemetry span.
// If no TracerProvider is configured globally, the default noop tracer is used
// and this middleware becomes a pass-through.
//
// Span attributes include: stategraph.graph, stategraph.node, stategraph.step,
// stategraph.thread_id and stategraph.update.fields on success.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, info domain.StepInfo, next Handler) (domain.State, error) {
		ctx, span := tracer.Start(ctx, "stategraph.node.execute",
			trace.WithAttributes(
				attribute.String("stategraph.graph", info.Graph),
				attribute.String("stategraph.node", info.Node),
				attribute.Int("stategraph.step", info.Step),
				attribute.String("stategraph.thread_id", info.ThreadID),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		update, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.StringSlice("stategraph.update.fields", update.Keys()))
			span.SetStatus(codes.Ok, "")
		}

		return update, err
	}
}
