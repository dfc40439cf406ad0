package prebuilt

import (
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/ports"
)

// AssistantNodeName is the model node of the graph built by Agent.
const AssistantNodeName = "assistant"

// Agent returns a builder wired for the tool-calling loop: the assistant runs
// first, ToolsCondition sends tool requests to the tool node, and the tool node
// hands the results back to the assistant. When tools also lists its
// declarations they are bound to the model.
//
// The builder can be extended with more nodes before compiling.
func Agent(name string, model ports.ChatModel, tools ToolExecutor, opts ...ModelNodeOption) *dsl.Builder {
	if lister, ok := tools.(ToolLister); ok {
		opts = append([]ModelNodeOption{WithTools(lister)}, opts...)
	}
	b := dsl.New(dsl.WithName(name), dsl.WithSchema(domain.MessagesSchema()))
	b.Node(AssistantNodeName, NewModelNode(model, opts...)).
		Entry().
		Route(ToolsCondition, ToolsTargets()...)
	b.Node(ToolsNodeName, NewToolNode(tools)).To(AssistantNodeName)
	return b
}
