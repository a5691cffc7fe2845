package agent

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// SequentialAgent runs its agents in order within one turn.
type SequentialAgent struct {
	name        string
	description string
	agents      []Agent
	beforeAgent BeforeAgentFunc
}

var _ Agent = (*SequentialAgent)(nil)

// NewSequentialAgent creates a sequential agent
func NewSequentialAgent(name, description string, agents ...Agent) *SequentialAgent {
	return &SequentialAgent{name: name, description: description, agents: agents}
}

// WithBeforeAgent sets a callback that may answer the turn instead.
func (s *SequentialAgent) WithBeforeAgent(fn BeforeAgentFunc) *SequentialAgent {
	s.beforeAgent = fn
	return s
}

func (s *SequentialAgent) Name() string        { return s.name }
func (s *SequentialAgent) Description() string { return s.description }

// Run runs every agent; an escalation stops the sequence and is passed on.
// The text of the last agent that produced one is returned.
func (s *SequentialAgent) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	if s.beforeAgent != nil {
		if text, ok := s.beforeAgent(ctx, inv); ok {
			return &Result{Author: s.name, Text: text}, nil
		}
	}

	final := &Result{Author: s.name}
	for _, a := range s.agents {
		res, err := a.Run(ctx, inv)
		if err != nil {
			return nil, err
		}
		if res.Text != "" {
			final.Author, final.Text, final.Output = res.Author, res.Text, res.Output
		}
		if res.Escalated {
			final.Escalated, final.EscalationMessage = true, res.EscalationMessage
			break
		}
	}
	return final, nil
}

// LoopAgent repeats its agents until one escalates or MaxIterations rounds ran.
type LoopAgent struct {
	name          string
	description   string
	agents        []Agent
	maxIterations int
}

var _ Agent = (*LoopAgent)(nil)

// NewLoopAgent creates a loop agent. maxIterations must be positive.
func NewLoopAgent(name, description string, maxIterations int, agents ...Agent) (*LoopAgent, error) {
	if maxIterations <= 0 {
		return nil, fmt.Errorf("loop agent %s: max iterations must be positive", name)
	}
	return &LoopAgent{name: name, description: description, agents: agents, maxIterations: maxIterations}, nil
}

func (l *LoopAgent) Name() string        { return l.name }
func (l *LoopAgent) Description() string { return l.description }

// Run loops; the escalation that ends the loop is not passed on.
func (l *LoopAgent) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	final := &Result{Author: l.name}
	for i := 0; i < l.maxIterations; i++ {
		for _, a := range l.agents {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := a.Run(ctx, inv)
			if err != nil {
				return nil, err
			}
			if res.Text != "" {
				final.Author, final.Text, final.Output = res.Author, res.Text, res.Output
			}
			if res.Escalated {
				inv.logger().Info("loop %s exited by %s after %d iterations", l.name, res.Author, i+1)
				if final.Text == "" {
					final.Text = res.EscalationMessage
				}
				return final, nil
			}
		}
	}
	inv.logger().Info("loop %s reached %d iterations", l.name, l.maxIterations)
	return final, nil
}

// AgentTool exposes an agent as a tool taking a "request" argument. The
// agent runs on the caller's state without conversation history.
type AgentTool struct {
	agent Agent
}

var _ Tool = (*AgentTool)(nil)

// NewAgentTool wraps agent
func NewAgentTool(agent Agent) *AgentTool {
	return &AgentTool{agent: agent}
}

func (t *AgentTool) Name() string        { return t.agent.Name() }
func (t *AgentTool) Description() string { return t.agent.Description() }

func (t *AgentTool) Parameters() map[string]any {
	return ObjectSchema([]Property{{Name: "request", Type: "string", Description: "the request for the agent", Required: true}})
}

// Call returns the structured output of the agent if it has one, else its text.
func (t *AgentTool) Call(ctx context.Context, tc *ToolContext, args map[string]any) (any, error) {
	request := StringArg(args, "request")
	if request == "" {
		return Failure("request is required"), nil
	}
	inv := &Invocation{
		Session:     &Session{ID: "tool:" + t.agent.Name(), State: tc.State},
		UserContent: llms.TextParts(llms.ChatMessageTypeHuman, request),
		Logger:      tc.Logger,
	}
	res, err := t.agent.Run(ctx, inv)
	if err != nil {
		return nil, err
	}
	if res.Output != nil {
		return res.Output, nil
	}
	return res.Text, nil
}
