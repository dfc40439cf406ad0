package domain

import "maps"

// Role tags the author of a message entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation history.
// Assistant messages may carry tool-call requests; tool messages carry the
// result of exactly one call, linked by ToolCallID.
type Message struct {
	ID         string     `json:"id,omitempty" mapstructure:"id"`
	Role       Role       `json:"role" mapstructure:"role"`
	Content    string     `json:"content" mapstructure:"content"`
	Name       string     `json:"name,omitempty" mapstructure:"name"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty" mapstructure:"tool_calls"`
	ToolCallID string     `json:"tool_call_id,omitempty" mapstructure:"tool_call_id"`
	IsError    bool       `json:"is_error,omitempty" mapstructure:"is_error"`
}

// SystemMessage builds a system prompt entry.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// HumanMessage builds a user entry.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// AssistantMessage builds a model response, optionally requesting tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage builds the result entry for a tool call.
func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, Name: name, ToolCallID: callID}
}

// HasToolCalls reports whether the message requests at least one tool call.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, c := range m.ToolCalls {
			out.ToolCalls[i] = c.Clone()
		}
	}
	return out
}

// LastMessage returns the final entry of the history stored under field.
func LastMessage(s State, field string) (Message, bool) {
	msgs := s.Messages(field)
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Clone returns a copy of the call with its own argument map.
func (c ToolCall) Clone() ToolCall {
	out := c
	if c.Args != nil {
		out.Args = make(map[string]any, len(c.Args))
		for k, v := range c.Args {
			out.Args[k] = cloneValue(v)
		}
	}
	if c.Metadata != nil {
		out.Metadata = maps.Clone(c.Metadata)
	}
	return out
}
