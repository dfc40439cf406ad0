package prebuilt

import (
	"context"
	"fmt"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
)

// ToolLister declares the tools a model may call. *registry.Registry implements it.
type ToolLister interface {
	Tools() []domain.Tool
}

// ModelNode asks a chat model for the next assistant message.
type ModelNode struct {
	model  ports.ChatModel
	system string
	tools  ToolLister
	field  string
}

// ModelNodeOption configures a ModelNode.
type ModelNodeOption func(*ModelNode)

// WithSystemPrompt prepends a system message to every model call.
// The prompt is not stored in the history.
func WithSystemPrompt(prompt string) ModelNodeOption {
	return func(n *ModelNode) { n.system = prompt }
}

// WithTools binds the tool declarations passed to the model.
func WithTools(tools ToolLister) ModelNodeOption {
	return func(n *ModelNode) { n.tools = tools }
}

// WithModelMessagesField reads and writes the history under a field other than "messages".
func WithModelMessagesField(field string) ModelNodeOption {
	return func(n *ModelNode) { n.field = field }
}

// NewModelNode creates the model-calling step.
func NewModelNode(model ports.ChatModel, opts ...ModelNodeOption) *ModelNode {
	n := &ModelNode{model: model, field: domain.MessagesKey}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Run calls the model with the history and appends its response.
func (n *ModelNode) Run(ctx context.Context, state domain.State) (domain.State, error) {
	history := state.Messages(n.field)
	messages := make([]domain.Message, 0, len(history)+1)
	if n.system != "" {
		messages = append(messages, domain.SystemMessage(n.system))
	}
	messages = append(messages, history...)

	var tools []domain.Tool
	if n.tools != nil {
		tools = n.tools.Tools()
	}

	reply, err := n.model.Generate(ctx, messages, tools)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if reply.Role == "" {
		reply.Role = domain.RoleAssistant
	}
	return domain.State{n.field: reply}, nil
}
