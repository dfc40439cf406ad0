package domain

import (
	"fmt"
)

// ToolCall represents a request, made by a model response, to invoke a tool.
// Ideally compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID       string            `json:"id" yaml:"id" mapstructure:"id"`                                       // Unique ID for this specific call (e.g. from LLM or generated)
	Name     string            `json:"name" yaml:"name" mapstructure:"name"`                                 // Function name to call
	Args     map[string]any    `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`             // Arguments for the function
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"` // Provider-specific metadata
}

// ToolResult represents the output of a tool invocation.
type ToolResult struct {
	ID      string `json:"id"` // Must match the ToolCall.ID
	Name    string `json:"name"`
	Result  any    `json:"result,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Content renders the result as message content.
func (r ToolResult) Content() string {
	if r.IsError {
		return "Error: " + r.Error
	}
	switch v := r.Result.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Message converts the result to a tool message entry.
func (r ToolResult) Message() Message {
	msg := ToolMessage(r.ID, r.Name, r.Content())
	msg.IsError = r.IsError
	return msg
}

// Tool defines metadata about a tool available to the engine.
// This is used for generating schemas/prompts.
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}
