package prebuilt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
)

// ToolExecutor runs a named tool. *registry.Registry implements it.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}

// ToolNode executes the tool calls requested by the last assistant message.
// Tool failures (unknown tool, invalid arguments, errors raised by the tool)
// are reported back to the model as error tool messages; they do not stop the run.
type ToolNode struct {
	tools ToolExecutor
	hooks domain.LifecycleHooks
	field string
}

// ToolNodeOption configures a ToolNode.
type ToolNodeOption func(*ToolNode)

// WithToolHooks emits OnToolCall / OnToolReturn for every call.
func WithToolHooks(hooks domain.LifecycleHooks) ToolNodeOption {
	return func(n *ToolNode) { n.hooks = hooks }
}

// WithMessagesField reads and writes the history under a field other than "messages".
func WithMessagesField(field string) ToolNodeOption {
	return func(n *ToolNode) { n.field = field }
}

// NewToolNode creates the tool-executing step.
func NewToolNode(tools ToolExecutor, opts ...ToolNodeOption) *ToolNode {
	n := &ToolNode{tools: tools, field: domain.MessagesKey}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Run answers every tool call of the last message, in order, with one tool message each.
func (n *ToolNode) Run(ctx context.Context, state domain.State) (domain.State, error) {
	last, ok := domain.LastMessage(state, n.field)
	if !ok || !last.HasToolCalls() {
		return nil, errors.New("tool node: last message has no tool calls")
	}

	info, _ := domain.StepInfoFrom(ctx)
	results := make([]domain.Message, 0, len(last.ToolCalls))
	for _, call := range last.ToolCalls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, n.call(ctx, info, call).Message())
	}
	return domain.State{n.field: results}, nil
}

func (n *ToolNode) call(ctx context.Context, info domain.StepInfo, call domain.ToolCall) domain.ToolResult {
	if n.hooks.OnToolCall != nil {
		n.hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolCall, ThreadID: info.ThreadID},
			Node:      info.Node,
			CallID:    call.ID,
			ToolName:  call.Name,
			Input:     call.Args,
		})
	}

	result := domain.ToolResult{ID: call.ID, Name: call.Name}
	out, err := n.tools.Execute(ctx, call.Name, call.Args)
	if err != nil {
		terr := &domain.ToolError{CallID: call.ID, Tool: call.Name, Err: err}
		result.IsError = true
		result.Error = err.Error()
		result.Result = terr
	} else {
		result.Result = out
	}

	if n.hooks.OnToolReturn != nil {
		n.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolReturn, ThreadID: info.ThreadID},
			Node:      info.Node,
			CallID:    call.ID,
			ToolName:  call.Name,
			Input:     call.Args,
			Output:    result.Result,
			IsError:   result.IsError,
		})
	}
	return result
}

// String names the step in logs.
func (n *ToolNode) String() string {
	return fmt.Sprintf("ToolNode(%s)", n.field)
}
