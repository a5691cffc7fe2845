package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/log"
)

// Agent handles one user turn.
type Agent interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) (*Result, error)
}

// Invocation is the context of one turn.
type Invocation struct {
	Session     *Session
	UserContent llms.MessageContent
	Logger      log.Logger
}

// State returns the session state
func (inv *Invocation) State() *State {
	return inv.Session.State
}

func (inv *Invocation) logger() log.Logger {
	return log.OrNoOp(inv.Logger)
}

// Result is the outcome of an agent turn.
type Result struct {
	// Author is the name of the agent that produced Text.
	Author string
	Text   string
	// Output holds the decoded structured output of agents with an output schema.
	Output any
	// Escalated is set when a tool asked to leave the enclosing loop.
	Escalated         bool
	EscalationMessage string
}

// BeforeAgentFunc runs before an agent. Returning ok answers the turn with
// text without running the agent.
type BeforeAgentFunc func(ctx context.Context, inv *Invocation) (text string, ok bool)

// BeforeToolFunc runs before every tool call. Returning ok skips the tool
// and uses result instead.
type BeforeToolFunc func(ctx context.Context, tool Tool, args map[string]any, tc *ToolContext) (result any, ok bool)

// userText returns the text parts of a message. Non-text parts are
// replaced by a short marker.
func userText(msg llms.MessageContent) llms.MessageContent {
	out := llms.MessageContent{Role: msg.Role}
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case llms.TextContent:
			out.Parts = append(out.Parts, p)
		case llms.BinaryContent:
			out.Parts = append(out.Parts, llms.TextPart(fmt.Sprintf("[attached %s file, %d bytes]", p.MIMEType, len(p.Data))))
		}
	}
	return out
}

// TextOf concatenates the text parts of a message
func TextOf(msg llms.MessageContent) string {
	var s string
	for _, part := range msg.Parts {
		if t, ok := part.(llms.TextContent); ok {
			s += t.Text
		}
	}
	return s
}

func findAgent(agents []Agent, name string) (Agent, error) {
	for _, a := range agents {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("agent %q not found", name)
}

var errEmptyResponse = errors.New("model returned no choices")
