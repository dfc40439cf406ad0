package runner_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/testutils"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/prebuilt"
	"github.com/aretw0/stategraph/pkg/runner"
	"github.com/aretw0/stategraph/pkg/session"
	"github.com/aretw0/stategraph/pkg/tools/arithmetic"
)

func newSessions(t *testing.T, model *testutils.ScriptedModel, tools prebuilt.ToolExecutor) *session.Manager {
	t.Helper()
	store := memory.NewStore()
	eng, err := stategraph.Compile(prebuilt.Agent("chat", model, tools), stategraph.WithCheckpointer(store))
	require.NoError(t, err)
	return session.NewManager(eng, store)
}

func addCall() domain.ToolCall {
	return domain.ToolCall{ID: "c1", Name: "add", Args: map[string]any{"a": 3, "b": 4}}
}

func TestRunner_Conversation(t *testing.T) {
	model := testutils.NewScriptedModel(
		domain.AssistantMessage("", addCall()),
		domain.AssistantMessage("It is 7."),
		domain.AssistantMessage("You asked about 3+4."),
	)
	sessions := newSessions(t, model, arithmetic.NewRegistry())

	out := &bytes.Buffer{}
	in := strings.NewReader("what is 3+4?\nwhat did I ask?\nexit\nnever read\n")
	r := runner.New(sessions,
		runner.WithThreadID("t1"),
		runner.WithInputHandler(runner.NewTextHandler(in, out, runner.WithPrompt(""))),
	)

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, strings.Join([]string{
		"[Tool Call] add map[a:3 b:4]",
		"[Tool Result] add: 7",
		"It is 7.",
		"You asked about 3+4.",
	}, "\n")+"\n", out.String())

	calls := model.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[2], 5, "second turn sees the whole thread history")

	cp, err := sessions.GetState(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, cp.State.Messages("messages"), 6)
}

func TestRunner_TurnErrorDoesNotStopLoop(t *testing.T) {
	model := testutils.NewScriptedModel(domain.AssistantMessage("recovered"))

	// Invalid JSON input is reported and skipped without calling the model.
	out := &bytes.Buffer{}
	in := strings.NewReader("{not json\nhello\n")
	r := runner.New(newSessions(t, model, arithmetic.NewRegistry()),
		runner.WithThreadID("t1"),
		runner.WithInputHandler(runner.NewTextHandler(in, out, runner.WithPrompt(""))),
	)
	require.NoError(t, r.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[System] "), lines[0])
	assert.Equal(t, "recovered", lines[1])
}

func TestRunner_ModelErrorReported(t *testing.T) {
	out := &bytes.Buffer{}
	r := runner.New(newSessions(t, testutils.NewScriptedModel(), arithmetic.NewRegistry()),
		runner.WithThreadID("t1"),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("hi\n"), out, runner.WithPrompt(""))),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), `[System] error at node "assistant" (step 1)`)
}

func TestRunner_GuardedTools(t *testing.T) {
	model := testutils.NewScriptedModel(
		domain.AssistantMessage("", addCall()),
		domain.AssistantMessage("I was not allowed."),
	)
	out := &bytes.Buffer{}
	handler := runner.NewTextHandler(strings.NewReader("add please\nno\n"), out, runner.WithPrompt(""))
	tools := runner.Guard(arithmetic.NewRegistry(), runner.ConfirmationMiddleware(handler))

	r := runner.New(newSessions(t, model, tools),
		runner.WithThreadID("t1"),
		runner.WithInputHandler(handler),
	)
	require.NoError(t, r.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Allow execution?")
	assert.Contains(t, got, "[Tool Error] add: Error: tool call denied: user denied execution")
	assert.Contains(t, got, "I was not allowed.")
}

func TestRunner_ReplayHistory(t *testing.T) {
	sessions := newSessions(t, testutils.NewScriptedModel(domain.AssistantMessage("first answer")), arithmetic.NewRegistry())
	_, err := sessions.Invoke(context.Background(), "t1", domain.State{"messages": domain.HumanMessage("q")})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := runner.New(sessions,
		runner.WithThreadID("t1"),
		runner.WithHistory(true),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(""), out, runner.WithPrompt(""))),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "first answer\n", out.String())
}

func TestRunner_TurnTimeout(t *testing.T) {
	slow := prebuilt.ToolExecutor(slowTools{})
	model := testutils.NewScriptedModel(domain.AssistantMessage("", addCall()))
	out := &bytes.Buffer{}
	r := runner.New(newSessions(t, model, slow),
		runner.WithThreadID("t1"),
		runner.WithTurnTimeout(20*time.Millisecond),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("go\n"), out, runner.WithPrompt(""))),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "[System] error at node")
}

func TestRunner_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := runner.New(newSessions(t, testutils.NewScriptedModel(), arithmetic.NewRegistry()),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("hi\n"), &bytes.Buffer{})),
	)
	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

type slowTools struct{}

func (slowTools) Execute(ctx context.Context, _ string, _ map[string]any) (any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
