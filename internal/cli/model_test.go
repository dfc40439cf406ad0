package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/tools/arithmetic"
)

func TestOfflineModel(t *testing.T) {
	tools := arithmetic.NewRegistry().Tools()
	ctx := context.Background()
	m := OfflineModel{}

	tests := []struct {
		name     string
		history  []domain.Message
		wantTool string
		wantArgs map[string]any
		want     string
	}{
		{
			name:     "addition",
			history:  []domain.Message{domain.HumanMessage("what is 3 + 4?")},
			wantTool: "add",
			wantArgs: map[string]any{"a": 3.0, "b": 4.0},
		},
		{
			name:     "words",
			history:  []domain.Message{domain.HumanMessage("12 times 2.5")},
			wantTool: "multiply",
			wantArgs: map[string]any{"a": 12.0, "b": 2.5},
		},
		{
			name:    "no arithmetic",
			history: []domain.Message{domain.HumanMessage("hello")},
			want:    "You said: hello",
		},
		{
			name:    "tool result",
			history: []domain.Message{domain.ToolMessage("c1", "add", "7")},
			want:    "The result is 7.",
		},
		{
			name:    "empty history",
			history: nil,
			want:    "Hello! Ask me to add, multiply or divide two numbers.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := m.Generate(ctx, tt.history, tools)
			require.NoError(t, err)
			assert.Equal(t, domain.RoleAssistant, reply.Role)
			if tt.wantTool == "" {
				assert.False(t, reply.HasToolCalls())
				assert.Equal(t, tt.want, reply.Content)
				return
			}
			require.Len(t, reply.ToolCalls, 1)
			assert.Equal(t, tt.wantTool, reply.ToolCalls[0].Name)
			assert.Equal(t, tt.wantArgs, reply.ToolCalls[0].Args)
			assert.NotEmpty(t, reply.ToolCalls[0].ID)
		})
	}
}

func TestOfflineModel_WithoutTools(t *testing.T) {
	reply, err := OfflineModel{}.Generate(context.Background(), []domain.Message{domain.HumanMessage("1 + 1")}, nil)
	require.NoError(t, err)
	assert.False(t, reply.HasToolCalls())
}

func TestOfflineModel_ToolError(t *testing.T) {
	failed := domain.ToolMessage("c1", "divide", "Error: division by zero")
	failed.IsError = true
	reply, err := OfflineModel{}.Generate(context.Background(), []domain.Message{failed}, nil)
	require.NoError(t, err)
	assert.Equal(t, "The tool failed: Error: division by zero", reply.Content)
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(config.ModelConfig{Provider: "scripted"})
	require.NoError(t, err)
	assert.IsType(t, OfflineModel{}, m)

	_, err = NewModel(config.ModelConfig{Provider: "llama"})
	assert.ErrorContains(t, err, "unknown model provider")
}
