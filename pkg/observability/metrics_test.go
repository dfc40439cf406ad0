package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnNodeLeave(ctx, &domain.NodeEvent{Node: "a", Duration: 10 * time.Millisecond})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{Node: "a", Err: errors.New("boom")})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "add"})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "divide", IsError: true})
	hooks.OnCheckpoint(ctx, &domain.CheckpointEvent{Node: "a", Step: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeExecutions.WithLabelValues("a", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeExecutions.WithLabelValues("a", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("divide", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkpoints.WithLabelValues("a")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.NodeDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"stategraph_node_executions_total",
		"stategraph_node_duration_seconds",
		"stategraph_tool_calls_total",
		"stategraph_checkpoints_total",
	}, names)
}
