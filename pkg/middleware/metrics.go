package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aretw0/stategraph/pkg/domain"
)

// meterName is the instrumentation scope name for node metrics.
const meterName = "github.com/aretw0/stategraph"

// Metrics returns middleware that records per-node execution metrics using
// the global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used.
//
// Instruments:
//   - stategraph.node.duration (Float64Histogram): execution time in seconds
//   - stategraph.node.executions (Int64Counter): total executions
//
// Both carry the attributes graph, node and status ("ok" or "error").
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	duration, _ := meter.Float64Histogram(
		"stategraph.node.duration",
		metric.WithDescription("Duration of node execution in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"stategraph.node.executions",
		metric.WithDescription("Total number of node executions"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, info domain.StepInfo, next Handler) (domain.State, error) {
		start := time.Now()
		update, err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("graph", info.Graph),
			attribute.String("node", info.Node),
			attribute.String("status", status),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return update, err
	}
}
