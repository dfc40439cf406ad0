package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/pkg/domain"
)

// ScriptedModel replays a fixed list of responses, one per Generate call.
// It records the messages and tools it was called with.
type ScriptedModel struct {
	mu        sync.Mutex
	responses []domain.Message
	calls     [][]domain.Message
	tools     [][]domain.Tool
}

// NewScriptedModel creates a model that answers with responses in order.
func NewScriptedModel(responses ...domain.Message) *ScriptedModel {
	return &ScriptedModel{responses: responses}
}

// Generate returns the next scripted response.
func (m *ScriptedModel) Generate(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]domain.Message(nil), messages...))
	m.tools = append(m.tools, tools)
	if len(m.responses) == 0 {
		return domain.Message{}, fmt.Errorf("scripted model: no response left for call %d", len(m.calls))
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

// Calls returns the message lists received so far.
func (m *ScriptedModel) Calls() [][]domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]domain.Message(nil), m.calls...)
}

// Tools returns the tool declarations received so far.
func (m *ScriptedModel) Tools() [][]domain.Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]domain.Tool(nil), m.tools...)
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SampleCheckpoint builds a checkpoint with a small mixed state, for store tests.
func SampleCheckpoint(t *testing.T, thread string, step int) domain.Checkpoint {
	t.Helper()
	require.NotEmpty(t, thread)
	return domain.Checkpoint{
		ID:       fmt.Sprintf("%s-%d", thread, step),
		ThreadID: thread,
		Step:     step,
		Node:     "node",
		State: domain.State{
			"count":    step,
			"messages": []domain.Message{domain.HumanMessage("hi")},
		},
		Writes: []string{"count"},
	}
}
