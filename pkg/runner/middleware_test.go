package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/tools/arithmetic"
)

// MockHandler is a testify mock of IOHandler.
type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) Output(ctx context.Context, messages []domain.Message) error {
	return m.Called(ctx, messages).Error(0)
}

func (m *MockHandler) Input(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockHandler) SystemOutput(ctx context.Context, msg string) error {
	return m.Called(ctx, msg).Error(0)
}

func TestConfirmationMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		allowed bool
	}{
		{"yes", "yes", true},
		{"short yes", " Y ", true},
		{"no", "n", false},
		{"anything else", "maybe", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := new(MockHandler)
			h.On("SystemOutput", mock.Anything, mock.MatchedBy(func(s string) bool { return len(s) > 0 })).Return(nil)
			h.On("Input", mock.Anything).Return(tt.answer, nil)

			allowed, result, err := ConfirmationMiddleware(h)(context.Background(), domain.ToolCall{ID: "c1", Name: "add"})
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
			if !tt.allowed {
				assert.True(t, result.IsError)
				assert.Equal(t, "c1", result.ID)
			}
			h.AssertExpectations(t)
		})
	}
}

func TestConfirmationMiddleware_InputError(t *testing.T) {
	h := new(MockHandler)
	h.On("SystemOutput", mock.Anything, mock.Anything).Return(nil)
	h.On("Input", mock.Anything).Return("", errors.New("closed"))

	_, _, err := ConfirmationMiddleware(h)(context.Background(), domain.ToolCall{Name: "add"})
	assert.Error(t, err)
}

func TestMultiInterceptor(t *testing.T) {
	chain := MultiInterceptor(AutoApproveMiddleware(), DenyListMiddleware("divide"))

	allowed, _, err := chain(context.Background(), domain.ToolCall{Name: "add"})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, result, err := chain(context.Background(), domain.ToolCall{Name: "divide"})
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, "tool is disabled", result.Error)
}

func TestGuard(t *testing.T) {
	reg := arithmetic.NewRegistry()
	guarded := Guard(reg, DenyListMiddleware("divide"))

	out, err := guarded.Execute(context.Background(), "add", map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, out)

	_, err = guarded.Execute(context.Background(), "divide", map[string]any{"a": 1, "b": 2})
	assert.ErrorIs(t, err, ErrToolDenied)

	lister, ok := guarded.(interface{ Tools() []domain.Tool })
	require.True(t, ok)
	assert.Len(t, lister.Tools(), 3)

	assert.Same(t, reg, Guard(reg, nil))
}
