package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/pkg/domain"
)

func TestJSONHandler_Input(t *testing.T) {
	in := strings.NewReader("\"quoted text\"\nraw text\n\n{\"topic\": \"go\"}\n")
	handler := NewJSONHandler(in, io.Discard)
	ctx := context.Background()

	for _, want := range []string{"quoted text", "raw text", `{"topic": "go"}`} {
		got, err := handler.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), out)

	require.NoError(t, handler.Output(context.Background(), []domain.Message{
		domain.HumanMessage("skip"),
		domain.AssistantMessage("hi"),
	}))
	require.NoError(t, handler.SystemOutput(context.Background(), "done"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first, second Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, EventMessage, first.Type)
	require.NotNil(t, first.Message)
	assert.Equal(t, domain.RoleAssistant, first.Message.Role)
	assert.Equal(t, "hi", first.Message.Content)
	assert.Equal(t, Event{Type: EventSystem, Text: "done"}, second)
}
