package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/testutils"
	"github.com/aretw0/stategraph/pkg/adapters/mcp"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/session"
	"github.com/aretw0/stategraph/pkg/tools/arithmetic"
)

func newServer(t *testing.T) *mcp.Server {
	t.Helper()
	b := dsl.New(dsl.WithName("counter"))
	b.Node("inc", domain.StepFunc(func(_ context.Context, s domain.State) (domain.State, error) {
		n, _ := s["count"].(int)
		return domain.State{"count": n + 1}, nil
	})).Entry().Terminal()

	store := memory.NewStore()
	eng, err := stategraph.Compile(b, stategraph.WithCheckpointer(store))
	require.NoError(t, err)
	return mcp.NewServer(session.NewManager(eng, store),
		mcp.WithRegistry(arithmetic.NewRegistry()),
		mcp.WithLogger(testutils.DiscardLogger()),
	)
}

var rpcID int

// call sends one JSON-RPC request and returns the decoded "result" object.
func call(t *testing.T, s *mcp.Server, method string, params any) map[string]any {
	t.Helper()
	rpcID++
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      rpcID,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := s.MCPServer().HandleMessage(context.Background(), raw)
	out, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(out, &envelope))
	require.Nil(t, envelope["error"], string(out))
	result, ok := envelope["result"].(map[string]any)
	require.True(t, ok, string(out))
	return result
}

func toolText(t *testing.T, result map[string]any) string {
	t.Helper()
	content, ok := result["content"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, content)
	first := content[0].(map[string]any)
	return fmt.Sprint(first["text"])
}

func TestServer_ListTools(t *testing.T) {
	s := newServer(t)
	result := call(t, s, "tools/list", map[string]any{})

	var names []string
	for _, tool := range result["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{
		"invoke_graph", "get_thread_state", "get_graph",
		"add", "multiply", "divide",
	}, names)
}

func TestServer_InvokeAndGetState(t *testing.T) {
	s := newServer(t)

	for i := 0; i < 2; i++ {
		result := call(t, s, "tools/call", map[string]any{
			"name":      "invoke_graph",
			"arguments": map[string]any{"thread_id": "t1", "input": `{}`},
		})
		assert.NotEqual(t, true, result["isError"])
	}

	result := call(t, s, "tools/call", map[string]any{
		"name":      "get_thread_state",
		"arguments": map[string]any{"thread_id": "t1"},
	})
	var cp domain.Checkpoint
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &cp))
	assert.Equal(t, "t1", cp.ThreadID)
	assert.Equal(t, 2, cp.Step)
	assert.EqualValues(t, 2, cp.State["count"])
}

func TestServer_GetStateUnknownThread(t *testing.T) {
	s := newServer(t)
	result := call(t, s, "tools/call", map[string]any{
		"name":      "get_thread_state",
		"arguments": map[string]any{"thread_id": "missing"},
	})
	assert.Equal(t, true, result["isError"])
}

func TestServer_RegistryTool(t *testing.T) {
	s := newServer(t)

	result := call(t, s, "tools/call", map[string]any{
		"name":      "multiply",
		"arguments": map[string]any{"a": 6, "b": 7},
	})
	assert.Equal(t, "42", toolText(t, result))

	result = call(t, s, "tools/call", map[string]any{
		"name":      "divide",
		"arguments": map[string]any{"a": 1, "b": 0},
	})
	assert.Equal(t, true, result["isError"])
}

func TestServer_GraphResource(t *testing.T) {
	s := newServer(t)
	result := call(t, s, "resources/read", map[string]any{"uri": mcp.GraphURI})

	contents := result["contents"].([]any)
	require.Len(t, contents, 1)
	text := contents[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "graph TD")
	assert.Contains(t, text, `n_inc["inc"]`)
}
