package openai

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/stategraph/pkg/domain"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireCallBody `json:"function"`
}

type wireCallBody struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

var roles = map[domain.Role]string{
	domain.RoleSystem:    "system",
	domain.RoleHuman:     "user",
	domain.RoleAssistant: "assistant",
	domain.RoleTool:      "tool",
}

func toWire(m domain.Message) (wireMessage, error) {
	role, ok := roles[m.Role]
	if !ok {
		return wireMessage{}, fmt.Errorf("openai: unsupported role %q", m.Role)
	}
	wm := wireMessage{Role: role, Content: m.Content, ToolCallID: m.ToolCallID}
	if m.Role == domain.RoleHuman {
		wm.Name = m.Name
	}
	for _, c := range m.ToolCalls {
		args, err := json.Marshal(c.Args)
		if err != nil {
			return wireMessage{}, fmt.Errorf("openai: encode arguments of %s: %w", c.Name, err)
		}
		if c.Args == nil {
			args = []byte("{}")
		}
		wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
			ID:       c.ID,
			Type:     "function",
			Function: wireCallBody{Name: c.Name, Arguments: string(args)},
		})
	}
	return wm, nil
}

func fromWire(id string, wm wireMessage) (domain.Message, error) {
	msg := domain.AssistantMessage(wm.Content)
	msg.ID = id
	for _, c := range wm.ToolCalls {
		args := map[string]any{}
		if c.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(c.Function.Arguments), &args); err != nil {
				return domain.Message{}, fmt.Errorf("openai: arguments of %s are not a JSON object: %w", c.Function.Name, err)
			}
		}
		msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{ID: c.ID, Name: c.Function.Name, Args: args})
	}
	return msg, nil
}
