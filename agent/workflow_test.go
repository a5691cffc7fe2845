package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exitTool() *FunctionTool {
	return NewFunctionTool("exit_loop", "Stop the loop", nil,
		func(ctx context.Context, tc *ToolContext, args map[string]any) (any, error) {
			tc.Actions.Escalate = true
			return Success("done"), nil
		})
}

func TestSequentialAgent(t *testing.T) {
	first := MustLLMAgent(LLMAgentConfig{Name: "sql", Model: NewMockModel(TextResponse("SELECT 1")), OutputKey: "sql_query"})
	second := MustLLMAgent(LLMAgentConfig{Name: "answer", Model: NewMockModel(TextResponse("One.")), Instruction: "Run {sql_query}"})

	seq := NewSequentialAgent("pipeline", "sql then answer", first, second)
	inv := newInvocation("how many?")
	res, err := seq.Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "One.", res.Text)
	assert.Equal(t, "answer", res.Author)

	guarded := NewSequentialAgent("pipeline", "", first).WithBeforeAgent(func(ctx context.Context, inv *Invocation) (string, bool) {
		return "upload first", true
	})
	res, err = guarded.Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "upload first", res.Text)
}

func TestLoopAgent(t *testing.T) {
	_, err := NewLoopAgent("loop", "", 0)
	assert.Error(t, err)

	writer := MustLLMAgent(LLMAgentConfig{
		Name:  "writer",
		Model: NewMockModel(TextResponse("draft 1"), TextResponse("draft 2"), TextResponse("draft 3")),
	})
	critic := MustLLMAgent(LLMAgentConfig{
		Name: "critic",
		Model: NewMockModel(
			TextResponse("improve intro"),
			ToolCallsResponse(NewToolCall("1", "exit_loop", nil)),
		),
		Tools: []Tool{exitTool()},
	})

	loop, err := NewLoopAgent("refine", "", 5, writer, critic)
	require.NoError(t, err)
	res, err := loop.Run(context.Background(), newInvocation("write"))
	require.NoError(t, err)
	assert.False(t, res.Escalated)
	assert.Equal(t, "draft 2", res.Text)

	bounded, err := NewLoopAgent("bounded", "", 2, MustLLMAgent(LLMAgentConfig{
		Name:  "w",
		Model: NewMockModel(TextResponse("a"), TextResponse("b")),
	}))
	require.NoError(t, err)
	res, err = bounded.Run(context.Background(), newInvocation("x"))
	require.NoError(t, err)
	assert.Equal(t, "b", res.Text)
}

func TestAgentTool(t *testing.T) {
	writer := MustLLMAgent(LLMAgentConfig{
		Name:        "message_writer",
		Description: "Writes messages",
		Model:       NewMockModel(TextResponse("Happy birthday!")),
		OutputKey:   "message",
	})
	tool := NewAgentTool(writer)
	assert.Equal(t, "message_writer", tool.Name())

	state := NewState(nil)
	out, err := tool.Call(context.Background(), &ToolContext{State: state, Actions: &Actions{}}, map[string]any{"request": "birthday note"})
	require.NoError(t, err)
	assert.Equal(t, "Happy birthday!", out)
	msg, _ := state.GetString("message")
	assert.Equal(t, "Happy birthday!", msg)

	out, err = tool.Call(context.Background(), &ToolContext{State: state, Actions: &Actions{}}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, Failure("request is required"), out)
}
