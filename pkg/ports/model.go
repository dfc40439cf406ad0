package ports

import (
	"context"

	"github.com/aretw0/stategraph/pkg/domain"
)

// ChatModel produces the next assistant message for a conversation.
// tools declares what the model may request; the response may carry tool calls.
type ChatModel interface {
	Generate(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Message, error)
}

// ChatModelFunc adapts a function to ChatModel.
type ChatModelFunc func(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Message, error)

func (f ChatModelFunc) Generate(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Message, error) {
	return f(ctx, messages, tools)
}
