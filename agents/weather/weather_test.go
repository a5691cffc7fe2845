package weather

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
)

func TestGetWeather(t *testing.T) {
	tests := []struct {
		city   string
		ok     bool
		report string
	}{
		{"New York", true, "The weather in New York is sunny with a temperature of 25°C."},
		{"LONDON", true, "It's cloudy in London with a temperature of 15°C."},
		{"to kyo", true, "Tokyo is experiencing light rain and a temperature of 18°C."},
		{"Berlin", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			r := GetWeather(tt.city)
			assert.Equal(t, tt.ok, r.OK())
			if tt.ok {
				assert.Equal(t, tt.report, r.Report)
			} else {
				assert.Equal(t, "Sorry, I don't have weather information for 'Berlin'.", r.ErrorMessage)
			}
		})
	}
}

func TestGetWeatherEmptyCity(t *testing.T) {
	r := GetWeather("  ")
	assert.False(t, r.OK())
	assert.Equal(t, "City name is required and cannot be empty.", r.ErrorMessage)

	model := agent.NewMockModel(
		agent.ToolCallsResponse(agent.NewToolCall("1", "get_weather", map[string]any{"city": ""})),
		agent.TextResponse("Which city?"),
	)
	runner, sess := newRunner(t, model)
	_, err := runner.Run(context.Background(), UserID, SessionID, "What's the weather?")
	require.NoError(t, err)

	_, ok := sess.State.Get(KeyLastCheckedCity)
	assert.False(t, ok)
	msgs := model.Calls()[1].Messages
	resp := msgs[len(msgs)-1].Parts[0].(llms.ToolCallResponse)
	assert.Contains(t, resp.Content, "City name is required and cannot be empty.")
}

func newRunner(t *testing.T, model llms.Model) (*agent.Runner, *agent.Session) {
	t.Helper()
	root, err := New(model)
	require.NoError(t, err)
	r := agent.NewRunner(AppName, root, nil)
	sess, err := r.Sessions.Create(context.Background(), AppName, UserID, SessionID, InitialState())
	require.NoError(t, err)
	return r, sess
}

func TestWeatherTurn(t *testing.T) {
	model := agent.NewMockModel(
		agent.ToolCallsResponse(agent.NewToolCall("1", "get_weather", map[string]any{"city": "London"})),
		agent.TextResponse("It's cloudy in London, 15°C."),
	)
	r, sess := newRunner(t, model)

	out, err := r.Run(context.Background(), UserID, SessionID, "What's the weather in London?")
	require.NoError(t, err)
	assert.Equal(t, "It's cloudy in London, 15°C.", out)

	city, _ := sess.State.GetString(KeyLastCheckedCity)
	assert.Equal(t, "London", city)
	report, _ := sess.State.GetString(KeyLastReport)
	assert.Equal(t, out, report)
}

func TestGuardrailBlocksParis(t *testing.T) {
	model := agent.NewMockModel(
		agent.ToolCallsResponse(agent.NewToolCall("1", "get_weather", map[string]any{"city": "PARIS"})),
		agent.TextResponse("Sorry, weather checks for Paris are disabled."),
	)
	r, sess := newRunner(t, model)

	_, err := r.Run(context.Background(), UserID, SessionID, "How about Paris?")
	require.NoError(t, err)

	blocked, _ := sess.State.Get(KeyGuardrailBlocked)
	assert.Equal(t, true, blocked)
	_, checked := sess.State.Get(KeyLastCheckedCity)
	assert.False(t, checked)

	msgs := model.Calls()[1].Messages
	resp := msgs[len(msgs)-1].Parts[0].(llms.ToolCallResponse)
	assert.Contains(t, resp.Content, "Policy restriction: Weather checks for 'Paris' are currently disabled by a tool guardrail.")
}

func TestGreetingTransfer(t *testing.T) {
	model := agent.NewMockModel(
		agent.ToolCallsResponse(agent.NewToolCall("1", agent.TransferToolName, map[string]any{"agent_name": "greeting_agent"})),
		agent.ToolCallsResponse(agent.NewToolCall("2", "say_hello", nil)),
		agent.TextResponse("Hello, Zack!"),
	)
	r, _ := newRunner(t, model)

	out, err := r.Run(context.Background(), UserID, SessionID, "Hi there")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Zack!", out)

	msgs := model.Calls()[2].Messages
	resp := msgs[len(msgs)-1].Parts[0].(llms.ToolCallResponse)
	assert.Equal(t, "Hello, Zack!", resp.Content)
}

func TestSayGoodbyeDefaultName(t *testing.T) {
	tc := &agent.ToolContext{State: agent.NewState(nil), Actions: &agent.Actions{}}
	out, err := NewSayGoodbyeTool().Call(context.Background(), tc, nil)
	require.NoError(t, err)
	assert.Equal(t, "Goodbye! there, Have a great day.", out)

	out, err = NewSayGoodbyeTool().Call(context.Background(), tc, map[string]any{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Goodbye! Ann, Have a great day.", out)
}
