package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Metrics holds the Prometheus collectors fed by engine lifecycle events.
type Metrics struct {
	NodeExecutions *prometheus.CounterVec
	NodeDuration   *prometheus.HistogramVec
	ToolCalls      *prometheus.CounterVec
	Checkpoints    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stategraph_node_executions_total",
				Help: "Total number of node executions",
			},
			[]string{"node", "status"},
		),
		NodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stategraph_node_duration_seconds",
				Help:    "Duration of node executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stategraph_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "status"},
		),
		Checkpoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stategraph_checkpoints_total",
				Help: "Total number of checkpoints saved",
			},
			[]string{"node"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeExecutions, m.NodeDuration, m.ToolCalls, m.Checkpoints)
	}
	return m
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeExecutions.WithLabelValues(e.Node, status(e.Err != nil)).Inc()
			m.NodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			m.ToolCalls.WithLabelValues(e.ToolName, status(e.IsError)).Inc()
		},
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			m.Checkpoints.WithLabelValues(e.Node).Inc()
		},
	}
}

func status(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}
