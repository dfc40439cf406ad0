package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter  EventType = "node_enter"
	EventNodeLeave  EventType = "node_leave"
	EventToolCall   EventType = "tool_call"
	EventToolReturn EventType = "tool_return"
	EventCheckpoint EventType = "checkpoint"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ThreadID  string    `json:"thread_id,omitempty"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	Node     string        `json:"node"`
	Step     int           `json:"step"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	EventBase
	Node     string `json:"node"`
	CallID   string `json:"call_id"`
	ToolName string `json:"tool_name"`
	Input    any    `json:"input,omitempty"`
	Output   any    `json:"output,omitempty"`
	IsError  bool   `json:"is_error,omitempty"`
}

// CheckpointEvent is emitted after a checkpoint is saved.
type CheckpointEvent struct {
	EventBase
	Node   string   `json:"node"`
	Step   int      `json:"step"`
	Writes []string `json:"writes,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeLeave  func(context.Context, *NodeEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
	OnCheckpoint func(context.Context, *CheckpointEvent)
}

// MergeHooks fans every event out to all given hook sets, in order.
func MergeHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *NodeEvent) {
			for _, h := range all {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeLeave: func(ctx context.Context, e *NodeEvent) {
			for _, h := range all {
				if h.OnNodeLeave != nil {
					h.OnNodeLeave(ctx, e)
				}
			}
		},
		OnToolCall: func(ctx context.Context, e *ToolEvent) {
			for _, h := range all {
				if h.OnToolCall != nil {
					h.OnToolCall(ctx, e)
				}
			}
		},
		OnToolReturn: func(ctx context.Context, e *ToolEvent) {
			for _, h := range all {
				if h.OnToolReturn != nil {
					h.OnToolReturn(ctx, e)
				}
			}
		},
		OnCheckpoint: func(ctx context.Context, e *CheckpointEvent) {
			for _, h := range all {
				if h.OnCheckpoint != nil {
					h.OnCheckpoint(ctx, e)
				}
			}
		},
	}
}
