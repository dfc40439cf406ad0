package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/pkg/domain"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.State
	}{
		{"empty", ``, domain.State{}},
		{"scalars", `{"graph_state":"Hi","n":3,"x":1.5,"ok":true}`,
			domain.State{"graph_state": "Hi", "n": 3, "x": 1.5, "ok": true}},
		{"nested numbers", `{"cfg":{"depth":2,"tags":["a",1]}}`,
			domain.State{"cfg": map[string]any{"depth": 2, "tags": []any{"a", 1}}}},
		{"message string", `{"messages":"What is 3 + 4?"}`,
			domain.State{"messages": []domain.Message{domain.HumanMessage("What is 3 + 4?")}}},
		{"single message with user alias", `{"messages":{"role":"user","content":"hi"}}`,
			domain.State{"messages": []domain.Message{domain.HumanMessage("hi")}}},
		{"message list", `{"messages":[{"content":"a"},{"role":"assistant","content":"b"}]}`,
			domain.State{"messages": []domain.Message{domain.HumanMessage("a"), domain.AssistantMessage("b")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseInput([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInput_Errors(t *testing.T) {
	for _, in := range []string{`[1,2]`, `"text"`, `{"messages":42}`, `{bad`} {
		_, err := domain.ParseInput([]byte(in))
		assert.ErrorIs(t, err, domain.ErrInvalidUpdate, in)
	}
}
