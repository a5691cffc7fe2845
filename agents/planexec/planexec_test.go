package planexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
)

func newToolContext() *agent.ToolContext {
	return &agent.ToolContext{State: agent.NewState(nil), Actions: &agent.Actions{}}
}

func stubWriter(text string) agent.Tool {
	return agent.NewFunctionTool("message_writer_agent", "writes", nil,
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			return text + " about " + agent.StringArg(args, "request"), nil
		})
}

func TestContactBook(t *testing.T) {
	b := NewContactBook(DefaultContacts())

	r := b.FindEmail("  Bro(Clay) ")
	require.True(t, r.OK())
	assert.Equal(t, "brother@example.com", r.Report)

	assert.Equal(t, "Contact name is required.", b.FindEmail(" ").ErrorMessage)
	assert.Equal(t, "No email found for contact 'john'.", b.FindEmail("john").ErrorMessage)

	r = b.DeleteEmail("ABEL@ceo.org")
	require.True(t, r.OK())
	assert.Equal(t, "Email 'ABEL@ceo.org' has been deleted.", r.Report)
	assert.NotContains(t, b.Names(), "abel")
	assert.Equal(t, "No contact found with email 'abel@ceo.org'.", b.DeleteEmail("abel@ceo.org").ErrorMessage)

	assert.Equal(t, "Message content is required.", SendEmail("a@b.c", "").ErrorMessage)
	assert.Equal(t, "Message sent to 'a@b.c': hi", SendEmail("a@b.c", "hi").Report)
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	e := &Executor{Contacts: NewContactBook(DefaultContacts()), Writer: stubWriter("Dear mom")}

	resp := e.Execute(ctx, newToolContext(),
		[]string{ActionFindEmail, ActionWriteMessage, ActionSendEmail},
		map[string]string{"name": "mom", "topic": "birthday"})
	require.True(t, resp.OK())
	assert.Equal(t, "Message sent to 'mom@example.com': Dear mom about birthday", resp.Report)

	resp = e.Execute(ctx, newToolContext(), []string{ActionFindEmail, ActionSendEmail}, map[string]string{"name": "john"})
	assert.Equal(t, "No email found for contact 'john'.", resp.ErrorMessage)

	resp = e.Execute(ctx, newToolContext(), []string{ActionFindEmail, "call_phone"}, map[string]string{"name": "dad"})
	assert.Equal(t, "Invalid action: 'call_phone'.", resp.ErrorMessage)

	resp = e.Execute(ctx, newToolContext(), nil, nil)
	assert.Equal(t, "No actions executed.", resp.ErrorMessage)

	resp = e.Execute(ctx, newToolContext(), []string{ActionWriteMessage}, map[string]string{})
	assert.Equal(t, "Topic is required to write a message.", resp.ErrorMessage)

	resp = e.Execute(ctx, newToolContext(), []string{ActionFindEmail, ActionDeleteEmail}, map[string]string{"name": "dad"})
	require.True(t, resp.OK())
	assert.NotContains(t, e.Contacts.Names(), "dad")
}

func TestPlanExecuteAgent(t *testing.T) {
	model := agent.NewMockModel(
		agent.ToolCallsResponse(agent.NewToolCall("1", "plan_executor_tool", map[string]any{
			"actions":   []string{"find_email", "write_message", "send_email"},
			"variables": map[string]string{"name": "mom", "topic": "birthday wish message"},
		})),
		agent.TextResponse("Happy birthday, Mom!"),
		agent.TextResponse("Birthday message sent to mom@example.com."),
	)
	a, err := New(model, NewContactBook(DefaultContacts()))
	require.NoError(t, err)

	out, err := agent.NewRunner("planexec", a, nil).Run(context.Background(), "u", "s", "Send a birthday email to mom")
	require.NoError(t, err)
	assert.Equal(t, "Birthday message sent to mom@example.com.", out)

	calls := model.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, agent.TextOf(calls[0].Messages[0]), "'bro(clay)'")
	assert.Equal(t, "birthday wish message", agent.TextOf(calls[1].Messages[len(calls[1].Messages)-1]))

	last := calls[2].Messages
	resp := last[len(last)-1].Parts[0].(llms.ToolCallResponse)
	assert.JSONEq(t, `{"status":"success","report":"Message sent to 'mom@example.com': Happy birthday, Mom!"}`, resp.Content)
}
