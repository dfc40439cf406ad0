package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args in a scratch directory holding a
// file-store config, so consecutive calls share threads.
func execute(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "stategraph.yaml")}, args...))
	t.Cleanup(func() { resetFlags(rootCmd) })
	err := rootCmd.Execute()
	return out.String(), err
}

func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "log:\n  level: error\nstore:\n  driver: file\n  file:\n    path: " + filepath.Join(dir, "threads") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stategraph.yaml"), []byte(cfg), 0o644))
	return dir
}

func TestRunAndThreads(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, dir, "", "run", "--thread", "t1", "what is 6 * 7")
	require.NoError(t, err)

	var state map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	msgs := state["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "The result is 42.", msgs[3].(map[string]any)["content"])

	out, err = execute(t, dir, "", "threads", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "t1")
	assert.Contains(t, out, "assistant")

	out, err = execute(t, dir, "", "threads", "history", "--diff", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "step 1  assistant  [messages]")
	assert.Contains(t, out, "step 3  assistant  [messages]")

	out, err = execute(t, dir, "", "graph", "--thread", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	out, err = execute(t, dir, "", "threads", "rm", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed thread 't1'")

	_, err = execute(t, dir, "", "threads", "inspect", "t1")
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, dir, "2 + 2\nexit\n", "chat", "--thread", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "[Tool Call] add")
	assert.Contains(t, out, "[Tool Result] add: 4")
	assert.Contains(t, out, "The result is 4.")
}

func TestValidateAndVersion(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, dir, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, `Graph "agent" is valid`)

	out, err = execute(t, dir, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stategraph version")
}

func TestRunDefinition(t *testing.T) {
	dir := workspace(t)
	graph := "../../pkg/definition/testdata/mood.yaml"

	out, err := execute(t, dir, "", "--graph", graph, "run", "--ephemeral", `{"graph_state": "Hi,"}`)
	require.NoError(t, err)
	assert.Regexp(t, `Hi, I am (happy|sad)!`, out)

	_, err = execute(t, dir, "", "--graph", graph, "run", "--ephemeral", `{"graph_state": 1}`)
	assert.Error(t, err)
}
