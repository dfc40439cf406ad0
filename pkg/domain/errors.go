package domain

import (
	"errors"
	"fmt"
)

// Construction errors, reported by the builder before any execution.
var (
	// ErrDuplicateNode is returned when a node name is registered twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrUnknownNode is returned when an edge references an unregistered node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrMultipleRouters is returned when a node gets a second outgoing edge or router.
	ErrMultipleRouters = errors.New("multiple routers")
	// ErrUnreachableEnd is returned when no path leads from START to END.
	ErrUnreachableEnd = errors.New("end is unreachable")
	// ErrUnreachableNode is returned when a registered node cannot be reached from START.
	ErrUnreachableNode = errors.New("node is unreachable")
	// ErrInvalidDefinition is returned for empty or reserved names and nil steps or routers.
	ErrInvalidDefinition = errors.New("invalid graph definition")
)

// Runtime errors, always delivered inside a *StepError.
var (
	ErrRouting           = errors.New("routing error")
	ErrNodeExecution     = errors.New("node execution failed")
	ErrStepLimitExceeded = errors.New("step limit exceeded")
	ErrCancelled         = errors.New("execution cancelled")
)

var (
	// ErrToolExecution marks a tool failure. Tool failures are recorded in the
	// conversation and do not stop the run.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrToolNotFound is returned when a tool call names an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")
)

var (
	// ErrThreadNotFound is returned when a thread has no stored checkpoint.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrCheckpointConflict is returned when a save does not advance the thread's step.
	ErrCheckpointConflict = errors.New("checkpoint conflict")
	// ErrThreadIDRequired is returned when a checkpointed graph is invoked without a thread id.
	ErrThreadIDRequired = errors.New("thread id required")
	// ErrInvalidUpdate is returned when a partial update cannot be merged into the state.
	ErrInvalidUpdate = errors.New("invalid state update")
)

// ConstructionError describes a graph definition problem.
type ConstructionError struct {
	Kind   error
	Node   string
	Detail string
}

func (e *ConstructionError) Error() string {
	msg := e.Kind.Error()
	if e.Node != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Node)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ConstructionError) Unwrap() error { return e.Kind }

// StepError is the runtime error returned by an invocation.
// It matches both its Kind and its underlying cause with errors.Is.
type StepError struct {
	Node string
	Step int
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	where := fmt.Sprintf("step %d", e.Step)
	if e.Node != "" {
		where = fmt.Sprintf("node %q step %d", e.Node, e.Step)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s at %s", e.Kind, where)
	}
	return fmt.Sprintf("%s at %s: %v", e.Kind, where, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ToolError records a failed tool call. It is rendered into the conversation
// as a tool message rather than aborting the run.
type ToolError struct {
	CallID string
	Tool   string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q (call %s): %v", e.Tool, e.CallID, e.Err)
}

func (e *ToolError) Unwrap() []error { return []error{ErrToolExecution, e.Err} }
