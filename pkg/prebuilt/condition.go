package prebuilt

import (
	"context"

	"github.com/aretw0/stategraph/pkg/domain"
)

// ToolsNodeName is the conventional name of the tool node.
const ToolsNodeName = "tools"

// ToolsCondition routes to the tool node when the last message of the history
// is an assistant message requesting tool calls, and to END otherwise.
func ToolsCondition(_ context.Context, state domain.State) (string, error) {
	last, ok := domain.LastMessage(state, domain.MessagesKey)
	if ok && last.HasToolCalls() {
		return ToolsNodeName, nil
	}
	return domain.END, nil
}

// ToolsTargets lists the declared destinations of ToolsCondition. END is implicit.
func ToolsTargets() []string {
	return []string{ToolsNodeName}
}
