package middleware_test

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/aretw0/stategraph/pkg/domain"
	mw "github.com/aretw0/stategraph/pkg/middleware"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestMetrics_RecordsExecutions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := mw.MetricsWithMeter(mp.Meter("test"))

	ok := func(context.Context) (domain.State, error) { return nil, nil }
	fail := func(context.Context) (domain.State, error) { return nil, errors.New("x") }
	_, _ = m(context.Background(), testInfo(), ok)
	_, _ = m(context.Background(), testInfo(), ok)
	_, _ = m(context.Background(), testInfo(), fail)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "stategraph.node.executions")
	if metric == nil {
		t.Fatal("stategraph.node.executions metric not found")
	}
	sum, isSum := metric.Data.(metricdata.Sum[int64])
	if !isSum {
		t.Fatal("expected Sum[int64] data type")
	}

	byStatus := map[string]int64{}
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value("status")
		byStatus[status.AsString()] = dp.Value
	}
	if byStatus["ok"] != 2 || byStatus["error"] != 1 {
		t.Errorf("unexpected counts: %v", byStatus)
	}

	if findMetric(rm, "stategraph.node.duration") == nil {
		t.Error("stategraph.node.duration metric not found")
	}
}
