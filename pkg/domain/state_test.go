package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_CloneIsDeep(t *testing.T) {
	original := State{
		"tags":   []string{"a"},
		"nested": map[string]any{"k": []any{1}},
		MessagesKey: []Message{
			AssistantMessage("", ToolCall{ID: "1", Name: "add", Args: map[string]any{"a": 1}}),
		},
	}

	clone := original.Clone()
	clone["tags"].([]string)[0] = "changed"
	clone["nested"].(map[string]any)["k"].([]any)[0] = 99
	clone[MessagesKey].([]Message)[0].ToolCalls[0].Args["a"] = 2

	assert.Equal(t, "a", original["tags"].([]string)[0])
	assert.Equal(t, 1, original["nested"].(map[string]any)["k"].([]any)[0])
	assert.Equal(t, 1, original[MessagesKey].([]Message)[0].ToolCalls[0].Args["a"])
}

func TestState_CloneNil(t *testing.T) {
	var s State
	c := s.Clone()
	require.NotNil(t, c)
	assert.Empty(t, c)
}

func TestState_Accessors(t *testing.T) {
	s := State{"name": "graph", "n": 3, MessagesKey: HumanMessage("hi")}

	assert.Equal(t, "graph", s.String("name"))
	assert.Equal(t, "", s.String("n"))
	assert.Equal(t, []string{MessagesKey, "n", "name"}, s.Keys())

	last, ok := LastMessage(s, MessagesKey)
	require.True(t, ok)
	assert.Equal(t, "hi", last.Content)

	_, ok = LastMessage(State{}, MessagesKey)
	assert.False(t, ok)
}

func TestMessage_HasToolCalls(t *testing.T) {
	assert.True(t, AssistantMessage("", ToolCall{ID: "1", Name: "add"}).HasToolCalls())
	assert.False(t, AssistantMessage("done").HasToolCalls())
	assert.False(t, HumanMessage("x").HasToolCalls())
}

func TestToolResult_Message(t *testing.T) {
	ok := ToolResult{ID: "c1", Name: "add", Result: 5}.Message()
	assert.Equal(t, RoleTool, ok.Role)
	assert.Equal(t, "5", ok.Content)
	assert.Equal(t, "c1", ok.ToolCallID)
	assert.False(t, ok.IsError)

	failed := ToolResult{ID: "c2", Name: "divide", IsError: true, Error: "division by zero"}.Message()
	assert.True(t, failed.IsError)
	assert.Equal(t, "Error: division by zero", failed.Content)
}
