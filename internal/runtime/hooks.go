package runtime

import (
	"context"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
)

func (e *Engine) emitNodeEnter(ctx context.Context, info domain.StepInfo) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeEnter, ThreadID: info.ThreadID},
		Node:      info.Node,
		Step:      info.Step,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, info domain.StepInfo, d time.Duration, err error) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeLeave, ThreadID: info.ThreadID},
		Node:      info.Node,
		Step:      info.Step,
		Duration:  d,
		Err:       err,
	})
}

func (e *Engine) emitCheckpoint(ctx context.Context, info domain.StepInfo, writes []string) {
	if e.hooks.OnCheckpoint == nil {
		return
	}
	e.hooks.OnCheckpoint(ctx, &domain.CheckpointEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCheckpoint, ThreadID: info.ThreadID},
		Node:      info.Node,
		Step:      info.Step,
		Writes:    writes,
	})
}
