package cli

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/pkg/adapters/openai"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
)

// NewModel builds the chat model selected by cfg.Provider.
func NewModel(cfg config.ModelConfig) (ports.ChatModel, error) {
	switch cfg.Provider {
	case "openai":
		client, err := openai.New(cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "", "scripted":
		return OfflineModel{}, nil
	}
	return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
}

var arithmeticRequest = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*([+*/x]|plus|times|divided by)\s*(-?\d+(?:\.\d+)?)`)

// OfflineModel is a deterministic stand-in for a chat model, so demos and
// tests run without network access. It asks for an arithmetic tool when the
// last human message contains "a op b", reports the tool result afterwards,
// and otherwise echoes the request.
type OfflineModel struct{}

func (OfflineModel) Generate(_ context.Context, messages []domain.Message, tools []domain.Tool) (domain.Message, error) {
	if len(messages) == 0 {
		return domain.AssistantMessage("Hello! Ask me to add, multiply or divide two numbers."), nil
	}

	last := messages[len(messages)-1]
	switch last.Role {
	case domain.RoleTool:
		if last.IsError {
			return domain.AssistantMessage("The tool failed: " + last.Content), nil
		}
		return domain.AssistantMessage(fmt.Sprintf("The result is %s.", last.Content)), nil
	case domain.RoleHuman:
		if m := arithmeticRequest.FindStringSubmatch(last.Content); m != nil {
			if name := toolFor(m[2]); hasTool(tools, name) {
				a, _ := strconv.ParseFloat(m[1], 64)
				b, _ := strconv.ParseFloat(m[3], 64)
				return domain.AssistantMessage("", domain.ToolCall{
					ID:   "call_" + uuid.NewString()[:8],
					Name: name,
					Args: map[string]any{"a": a, "b": b},
				}), nil
			}
		}
		return domain.AssistantMessage("You said: " + last.Content), nil
	}
	return domain.AssistantMessage("Anything else?"), nil
}

func toolFor(op string) string {
	switch op {
	case "+", "plus":
		return "add"
	case "*", "x", "times":
		return "multiply"
	case "/", "divided by":
		return "divide"
	}
	return ""
}

func hasTool(tools []domain.Tool, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}
