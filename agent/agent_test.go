package agent

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/log"
)

func echoTool() *FunctionTool {
	return NewFunctionTool("echo", "Echo the text back",
		ObjectSchema([]Property{{Name: "text", Type: "string", Required: true}}),
		func(ctx context.Context, tc *ToolContext, args map[string]any) (any, error) {
			text := StringArg(args, "text")
			if text == "" {
				return Failure("text is required"), nil
			}
			tc.State.Set("last_echo", text)
			return Success(text), nil
		})
}

func newInvocation(text string) *Invocation {
	return &Invocation{
		Session:     &Session{ID: "s", State: NewState(nil)},
		UserContent: llms.TextParts(llms.ChatMessageTypeHuman, text),
	}
}

func TestLLMAgentToolLoop(t *testing.T) {
	model := NewMockModel(
		ToolCallsResponse(NewToolCall("1", "echo", map[string]any{"text": "hi"})),
		TextResponse("You said hi"),
	)
	a, err := NewLLMAgent(LLMAgentConfig{
		Name:        "echoer",
		Model:       model,
		Instruction: "Echo for {user?}.",
		Tools:       []Tool{echoTool()},
		OutputKey:   "answer",
	})
	require.NoError(t, err)

	inv := newInvocation("say hi")
	res, err := a.Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "You said hi", res.Text)
	assert.Equal(t, "echoer", res.Author)

	v, _ := inv.State().Get("last_echo")
	assert.Equal(t, "hi", v)
	v, _ = inv.State().Get("answer")
	assert.Equal(t, "You said hi", v)

	calls := model.Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].Options.Tools, 1)
	assert.Equal(t, "Echo for .", TextOf(calls[0].Messages[0]))

	second := calls[1].Messages
	toolMsg := second[len(second)-1]
	assert.Equal(t, llms.ChatMessageTypeTool, toolMsg.Role)
	resp, ok := toolMsg.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "1", resp.ToolCallID)
	assert.JSONEq(t, `{"status":"success","report":"hi"}`, resp.Content)
}

func TestLLMAgentToolFailures(t *testing.T) {
	failing := NewFunctionTool("fail", "Always fails", nil,
		func(ctx context.Context, tc *ToolContext, args map[string]any) (any, error) {
			return nil, errors.New("backend down")
		})
	model := NewMockModel(
		ToolCallsResponse(
			NewToolCall("1", "missing", nil),
			NewToolCall("2", "fail", nil),
			llms.ToolCall{ID: "3", Type: "function", FunctionCall: &llms.FunctionCall{Name: "echo", Arguments: "{bad"}},
		),
		TextResponse("sorry"),
	)
	a := MustLLMAgent(LLMAgentConfig{Name: "a", Model: model, Tools: []Tool{failing, echoTool()}})

	res, err := a.Run(context.Background(), newInvocation("go"))
	require.NoError(t, err)
	assert.Equal(t, "sorry", res.Text)

	msgs := model.Calls()[1].Messages
	contents := make([]string, 0, 3)
	for _, m := range msgs[len(msgs)-3:] {
		contents = append(contents, m.Parts[0].(llms.ToolCallResponse).Content)
	}
	assert.Contains(t, contents[0], "tool not found")
	assert.JSONEq(t, `{"status":"error","error_message":"backend down"}`, contents[1])
	assert.Contains(t, contents[2], "invalid arguments")
}

func TestLLMAgentMaxIterations(t *testing.T) {
	call := NewToolCall("1", "echo", map[string]any{"text": "again"})
	model := NewMockModel(ToolCallsResponse(call), ToolCallsResponse(call))
	a := MustLLMAgent(LLMAgentConfig{Name: "a", Model: model, Tools: []Tool{echoTool()}, MaxIterations: 2})

	res, err := a.Run(context.Background(), newInvocation("loop"))
	require.NoError(t, err)
	assert.Equal(t, maxIterationsMessage, res.Text)
}

func TestLLMAgentLogsSteps(t *testing.T) {
	var buf bytes.Buffer
	model := NewMockModel(
		ToolCallsResponse(NewToolCall("1", "echo", map[string]any{"text": "hi"})),
		TextResponse("done"),
	)
	a := MustLLMAgent(LLMAgentConfig{Name: "a", Model: model, Tools: []Tool{echoTool()}})
	inv := newInvocation("hi")
	inv.Logger = log.NewCustomLogger(&buf, log.LogLevelDebug)

	_, err := a.Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "agent a step tools completed")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("agent a step model completed")))

	buf.Reset()
	a = MustLLMAgent(LLMAgentConfig{Name: "a", Model: NewMockModel()})
	_, err = a.Run(context.Background(), inv)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "agent a step model failed")
}

func TestLLMAgentEscalationSkipsModel(t *testing.T) {
	stop := NewFunctionTool("stop", "Stop", nil,
		func(ctx context.Context, tc *ToolContext, args map[string]any) (any, error) {
			tc.Actions.Escalate = true
			return Success("stopped"), nil
		})
	model := NewMockModel(ToolCallsResponse(NewToolCall("1", "stop", nil)))
	a := MustLLMAgent(LLMAgentConfig{Name: "a", Model: model, Tools: []Tool{stop}})

	res, err := a.Run(context.Background(), newInvocation("stop"))
	require.NoError(t, err)
	assert.True(t, res.Escalated)
	assert.Len(t, model.Calls(), 1)
}

func TestLLMAgentMissingStateKey(t *testing.T) {
	a := MustLLMAgent(LLMAgentConfig{Name: "a", Model: NewMockModel(), Instruction: "Use {table_info}"})
	_, err := a.Run(context.Background(), newInvocation("q"))
	assert.ErrorIs(t, err, ErrMissingStateKey)
}

func TestLLMAgentModelErrors(t *testing.T) {
	a := MustLLMAgent(LLMAgentConfig{Name: "a", Model: NewMockModel()})
	_, err := a.Run(context.Background(), newInvocation("q"))
	assert.ErrorIs(t, err, ErrScriptExhausted)

	a = MustLLMAgent(LLMAgentConfig{Name: "a", Model: NewMockModel(&llms.ContentResponse{})})
	_, err = a.Run(context.Background(), newInvocation("q"))
	assert.ErrorIs(t, err, errEmptyResponse)
}

func TestNewLLMAgentValidation(t *testing.T) {
	_, err := NewLLMAgent(LLMAgentConfig{Model: NewMockModel()})
	assert.Error(t, err)
	_, err = NewLLMAgent(LLMAgentConfig{Name: "a"})
	assert.Error(t, err)
	_, err = NewLLMAgent(LLMAgentConfig{Name: "a", Model: NewMockModel(), Tools: []Tool{echoTool(), echoTool()}})
	assert.Error(t, err)
	_, err = NewLLMAgent(LLMAgentConfig{Name: "a", Model: NewMockModel(), OutputSchema: "text"})
	assert.Error(t, err)
}

type classification struct {
	Classification string `json:"classification"`
}

func TestLLMAgentOutputSchema(t *testing.T) {
	model := NewMockModel(TextResponse("```json\n{\"classification\": \"RAG query\"}\n```"))
	a := MustLLMAgent(LLMAgentConfig{Name: "c", Model: model, OutputSchema: classification{}, OutputKey: "result"})

	inv := newInvocation("what is in the docs?")
	res, err := a.Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, classification{Classification: "RAG query"}, res.Output)
	v, _ := inv.State().Get("result")
	assert.Equal(t, classification{Classification: "RAG query"}, v)
	assert.True(t, model.Calls()[0].Options.JSONMode)

	bad := MustLLMAgent(LLMAgentConfig{Name: "c", Model: NewMockModel(TextResponse(`{"other": 1}`)), OutputSchema: classification{}})
	_, err = bad.Run(context.Background(), newInvocation("x"))
	assert.Error(t, err)
}

func TestLLMAgentTransfer(t *testing.T) {
	greeter := MustLLMAgent(LLMAgentConfig{
		Name:        "greeting_agent",
		Description: "Says hello",
		Model:       NewMockModel(TextResponse("Hello there!")),
	})
	root := MustLLMAgent(LLMAgentConfig{
		Name:      "root",
		Model:     NewMockModel(ToolCallsResponse(NewToolCall("1", TransferToolName, map[string]any{"agent_name": "greeting_agent"}))),
		SubAgents: []Agent{greeter},
	})

	res, err := root.Run(context.Background(), newInvocation("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", res.Text)
	assert.Equal(t, "greeting_agent", res.Author)
}

func TestLLMAgentCallbacks(t *testing.T) {
	t.Run("before agent", func(t *testing.T) {
		model := NewMockModel()
		a := MustLLMAgent(LLMAgentConfig{
			Name:  "a",
			Model: model,
			BeforeAgent: func(ctx context.Context, inv *Invocation) (string, bool) {
				return "skipped", true
			},
		})
		res, err := a.Run(context.Background(), newInvocation("q"))
		require.NoError(t, err)
		assert.Equal(t, "skipped", res.Text)
		assert.Empty(t, model.Calls())
	})

	t.Run("before tool", func(t *testing.T) {
		model := NewMockModel(
			ToolCallsResponse(NewToolCall("1", "echo", map[string]any{"text": "secret"})),
			TextResponse("blocked"),
		)
		a := MustLLMAgent(LLMAgentConfig{
			Name:  "a",
			Model: model,
			Tools: []Tool{echoTool()},
			BeforeTool: func(ctx context.Context, tool Tool, args map[string]any, tc *ToolContext) (any, bool) {
				if args["text"] == "secret" {
					return Failure("policy"), true
				}
				return nil, false
			},
		})
		inv := newInvocation("q")
		_, err := a.Run(context.Background(), inv)
		require.NoError(t, err)
		_, ok := inv.State().Get("last_echo")
		assert.False(t, ok)
	})
}
