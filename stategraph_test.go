package stategraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
)

func counter(t *testing.T, until int) *dsl.Builder {
	t.Helper()
	b := dsl.New(dsl.WithName("counter"))
	require.NoError(t, b.AddNode("count", domain.StepFunc(func(_ context.Context, s domain.State) (domain.State, error) {
		n, _ := s["n"].(int)
		return domain.State{"n": n + 1}, nil
	})))
	require.NoError(t, b.AddEdge(domain.START, "count"))
	require.NoError(t, b.AddConditionalEdges("count", domain.RouterFunc(func(_ context.Context, s domain.State) (string, error) {
		if n, _ := s["n"].(int); n >= until {
			return domain.END, nil
		}
		return "count", nil
	}), "count", domain.END))
	return b
}

func TestCompile_NoStepLimitByDefault(t *testing.T) {
	eng, err := stategraph.Compile(counter(t, 40))
	require.NoError(t, err)

	out, err := eng.Invoke(context.Background(), nil, domain.RunConfig{})
	require.NoError(t, err)
	assert.Equal(t, 40, out["n"])
}

func TestCompile_WithMaxSteps(t *testing.T) {
	eng, err := stategraph.Compile(counter(t, 40), stategraph.WithMaxSteps(10))
	require.NoError(t, err)

	_, err = eng.Invoke(context.Background(), nil, domain.RunConfig{})
	assert.ErrorIs(t, err, domain.ErrStepLimitExceeded)

	out, err := eng.Invoke(context.Background(), nil, domain.RunConfig{MaxSteps: 100})
	require.NoError(t, err)
	assert.Equal(t, 40, out["n"])
}

func TestEngine_Name(t *testing.T) {
	eng, err := stategraph.Compile(counter(t, 1))
	require.NoError(t, err)
	assert.Equal(t, "counter", eng.Name())

	renamed, err := stategraph.Compile(counter(t, 1), stategraph.WithName("tally"))
	require.NoError(t, err)
	assert.Equal(t, "tally", renamed.Name())
	assert.Equal(t, "tally", renamed.Graph().Name)
}
