package arithmetic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/pkg/tools/arithmetic"
)

func TestArithmeticTools(t *testing.T) {
	reg := arithmetic.NewRegistry()
	ctx := context.Background()

	tests := []struct {
		tool string
		args map[string]any
		want float64
	}{
		{"add", map[string]any{"a": 3, "b": 4}, 7},
		{"multiply", map[string]any{"a": 7.0, "b": 2.0}, 14},
		{"divide", map[string]any{"a": 14, "b": 5}, 2.8},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			got, err := reg.Execute(ctx, tt.tool, tt.args)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDivideByZero(t *testing.T) {
	_, err := arithmetic.NewRegistry().Execute(context.Background(), "divide", map[string]any{"a": 1, "b": 0})
	assert.ErrorIs(t, err, arithmetic.ErrDivisionByZero)
}

func TestToolDeclarations(t *testing.T) {
	tools := arithmetic.NewRegistry().Tools()
	require.Len(t, tools, 3)

	names := []string{tools[0].Name, tools[1].Name, tools[2].Name}
	assert.Equal(t, []string{"add", "divide", "multiply"}, names)
	for _, tool := range tools {
		props := tool.Parameters["properties"].(map[string]any)
		assert.Equal(t, "number", props["a"].(map[string]any)["type"])
	}
}
