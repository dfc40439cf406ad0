package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/internal/logging"
)

func TestNewTools(t *testing.T) {
	reg, err := NewTools(config.ToolsConfig{Arithmetic: true}, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, reg.Tools(), 3)

	reg, err = NewTools(config.ToolsConfig{}, logging.NewNop())
	require.NoError(t, err)
	assert.Empty(t, reg.Tools())
}

func TestNewTools_ProcessFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.sh"), []byte(`printf 'hi %s' "$STATEGRAPH_ARG_NAME"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tools.yaml"), []byte(`
tools:
  - name: hello
    description: Says hi.
    command: sh
    args: [hello.sh]
    params:
      name: string
`), 0o644))

	reg, err := NewTools(config.ToolsConfig{Arithmetic: true, File: filepath.Join(dir, "tools.yaml")}, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, reg.Tools(), 4)

	out, err := reg.Execute(context.Background(), "hello", map[string]any{"name": "ana"})
	require.NoError(t, err)
	assert.Equal(t, "hi ana", out)
}

func TestNewTools_Conflict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools:\n  - name: add\n    command: echo\n"), 0o644))

	_, err := NewTools(config.ToolsConfig{Arithmetic: true, File: path}, logging.NewNop())
	assert.ErrorContains(t, err, `tool "add" is already registered`)
}
