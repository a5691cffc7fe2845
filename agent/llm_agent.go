package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/graph"
)

const (
	// DefaultMaxIterations bounds the model calls of one turn
	DefaultMaxIterations = 10

	// TransferToolName is the tool sub-agents are reached through
	TransferToolName = "transfer_to_agent"

	maxIterationsMessage = "Maximum iterations reached. Please try a simpler query."
)

// LLMAgentConfig configures an LLMAgent.
type LLMAgentConfig struct {
	Name        string
	Description string
	Model       llms.Model
	// Instruction is the system prompt. {key} and {key?} are filled from state.
	Instruction string
	Tools       []Tool
	SubAgents   []Agent
	// OutputKey stores the final text, or the decoded output, in state.
	OutputKey string
	// OutputSchema is a struct value the final text must decode into.
	OutputSchema  any
	BeforeAgent   BeforeAgentFunc
	BeforeTool    BeforeToolFunc
	MaxIterations int
}

// LLMAgent answers with a model, calling tools as the model requests.
type LLMAgent struct {
	cfg      LLMAgentConfig
	tools    map[string]Tool
	defs     []llms.Tool
	runnable *graph.StateRunnable[*turn]
}

var _ Agent = (*LLMAgent)(nil)

// turn is the graph state of one LLMAgent run
type turn struct {
	inv        *Invocation
	messages   []llms.MessageContent
	pending    []llms.ToolCall
	iterations int
	text       string
	done       bool
	escalated  bool
	escalation string
	transferTo string
}

// NewLLMAgent validates cfg and builds the agent.
func NewLLMAgent(cfg LLMAgentConfig) (*LLMAgent, error) {
	if cfg.Name == "" {
		return nil, errors.New("agent name is required")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("agent %s: model is required", cfg.Name)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.OutputSchema != nil && reflect.TypeOf(cfg.OutputSchema).Kind() != reflect.Struct {
		return nil, fmt.Errorf("agent %s: output schema must be a struct value", cfg.Name)
	}

	a := &LLMAgent{cfg: cfg, tools: make(map[string]Tool)}
	tools := cfg.Tools
	if len(cfg.SubAgents) > 0 {
		tools = append(tools, a.transferTool())
	}
	for _, t := range tools {
		if _, dup := a.tools[t.Name()]; dup {
			return nil, fmt.Errorf("agent %s: duplicate tool %s", cfg.Name, t.Name())
		}
		a.tools[t.Name()] = t
		a.defs = append(a.defs, Definition(t))
	}

	g := graph.NewStateGraph[*turn]()
	g.AddNode("model", "Call the model with the conversation and tool declarations", a.callModel)
	g.AddNode("tools", "Execute the tool calls of the last model message", a.callTools)
	g.SetEntryPoint("model")
	g.AddConditionalEdge("model", func(ctx context.Context, t *turn) string {
		if t.done {
			return graph.END
		}
		return "tools"
	})
	g.AddEdge("tools", "model")
	runnable, err := g.Compile()
	if err != nil {
		return nil, err
	}
	runnable.AddListener(a.logStep)
	a.runnable = runnable.WithStepLimit(2*cfg.MaxIterations + 2)
	return a, nil
}

// MustLLMAgent is NewLLMAgent for statically known configurations.
func MustLLMAgent(cfg LLMAgentConfig) *LLMAgent {
	a, err := NewLLMAgent(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *LLMAgent) Name() string        { return a.cfg.Name }
func (a *LLMAgent) Description() string { return a.cfg.Description }

// SubAgents returns the agents this agent can transfer to
func (a *LLMAgent) SubAgents() []Agent { return a.cfg.SubAgents }

// Run executes one turn.
func (a *LLMAgent) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	logger := inv.logger()
	if a.cfg.BeforeAgent != nil {
		if text, ok := a.cfg.BeforeAgent(ctx, inv); ok {
			logger.Debug("agent %s answered by before-agent callback", a.cfg.Name)
			res := &Result{Author: a.cfg.Name, Text: text}
			if a.cfg.OutputKey != "" {
				inv.State().Set(a.cfg.OutputKey, text)
			}
			return res, nil
		}
	}

	instruction, err := FillInstruction(a.cfg.Instruction, inv.State())
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.cfg.Name, err)
	}

	t := &turn{inv: inv, messages: a.messages(instruction, inv)}
	logger.Debug("agent %s started", a.cfg.Name)
	t, err = a.runnable.Invoke(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.cfg.Name, err)
	}

	if t.transferTo != "" {
		sub, err := findAgent(a.cfg.SubAgents, t.transferTo)
		if err != nil {
			return nil, err
		}
		logger.Info("agent %s transferred to %s", a.cfg.Name, sub.Name())
		return sub.Run(ctx, inv)
	}

	res := &Result{
		Author:            a.cfg.Name,
		Text:              strings.TrimSpace(t.text),
		Escalated:         t.escalated,
		EscalationMessage: t.escalation,
	}
	if a.cfg.OutputSchema != nil && !t.escalated {
		out, err := decodeOutput(res.Text, a.cfg.OutputSchema)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.cfg.Name, err)
		}
		res.Output = out
	}
	if a.cfg.OutputKey != "" && !t.escalated {
		if res.Output != nil {
			inv.State().Set(a.cfg.OutputKey, res.Output)
		} else {
			inv.State().Set(a.cfg.OutputKey, res.Text)
		}
	}
	logger.Debug("agent %s finished after %d model calls", a.cfg.Name, t.iterations)
	return res, nil
}

func (a *LLMAgent) messages(instruction string, inv *Invocation) []llms.MessageContent {
	var system strings.Builder
	system.WriteString(instruction)
	if len(a.cfg.SubAgents) > 0 {
		system.WriteString("\n\nYou can transfer the conversation to one of these agents with the ")
		system.WriteString(TransferToolName)
		system.WriteString(" tool when their description matches the request better:\n")
		for _, sub := range a.cfg.SubAgents {
			fmt.Fprintf(&system, "- %s: %s\n", sub.Name(), sub.Description())
		}
	}

	var msgs []llms.MessageContent
	if s := strings.TrimSpace(system.String()); s != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, s))
	}
	msgs = append(msgs, inv.Session.History()...)
	return append(msgs, userText(inv.UserContent))
}

// logStep traces graph steps through the invocation logger.
func (a *LLMAgent) logStep(ctx context.Context, event graph.NodeEvent, node string, t *turn, err error) {
	logger := t.inv.logger()
	switch event {
	case graph.NodeEventComplete:
		logger.Debug("agent %s step %s completed", a.cfg.Name, node)
	case graph.NodeEventError:
		logger.Error("agent %s step %s failed: %v", a.cfg.Name, node, err)
	}
}

func (a *LLMAgent) callModel(ctx context.Context, t *turn) (*turn, error) {
	// A tool escalated or asked for a transfer, the turn ends without
	// another model call.
	if t.escalated || t.transferTo != "" {
		t.done = true
		return t, nil
	}
	if t.iterations >= a.cfg.MaxIterations {
		t.text = maxIterationsMessage
		t.done = true
		return t, nil
	}
	t.iterations++

	var opts []llms.CallOption
	if len(a.defs) > 0 {
		opts = append(opts, llms.WithTools(a.defs))
	}
	if a.cfg.OutputSchema != nil {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := a.cfg.Model.GenerateContent(ctx, t.messages, opts...)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errEmptyResponse
	}
	choice := resp.Choices[0]

	ai := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	if choice.Content != "" {
		ai.Parts = append(ai.Parts, llms.TextPart(choice.Content))
	}
	for _, tc := range choice.ToolCalls {
		ai.Parts = append(ai.Parts, tc)
	}
	t.messages = append(t.messages, ai)
	t.text = choice.Content
	t.pending = choice.ToolCalls
	t.done = len(choice.ToolCalls) == 0
	return t, nil
}

func (a *LLMAgent) callTools(ctx context.Context, t *turn) (*turn, error) {
	logger := t.inv.logger()
	for _, call := range t.pending {
		if call.FunctionCall == nil {
			continue
		}
		name := call.FunctionCall.Name
		actions := &Actions{}
		result := a.callTool(ctx, t.inv, call, actions)
		logger.Debug("agent %s tool %s returned %s", a.cfg.Name, name, encodeResult(result))

		t.messages = append(t.messages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: call.ID,
				Name:       name,
				Content:    encodeResult(result),
			}},
		})

		if actions.Escalate {
			t.escalated = true
			t.escalation = encodeResult(result)
		}
		if actions.TransferTo != "" && t.transferTo == "" {
			t.transferTo = actions.TransferTo
		}
	}
	t.pending = nil
	return t, nil
}

// callTool runs one tool call. Failures become error Responses for the model.
func (a *LLMAgent) callTool(ctx context.Context, inv *Invocation, call llms.ToolCall, actions *Actions) any {
	name := call.FunctionCall.Name
	tool, ok := a.tools[name]
	if !ok {
		return Failuref("%v: %s", ErrToolNotFound, name)
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.FunctionCall.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return Failuref("invalid arguments for %s: %v", name, err)
		}
	}

	tc := &ToolContext{
		AgentName:   a.cfg.Name,
		State:       inv.State(),
		Actions:     actions,
		UserContent: inv.UserContent,
		Logger:      inv.logger(),
	}
	if a.cfg.BeforeTool != nil {
		if result, ok := a.cfg.BeforeTool(ctx, tool, args, tc); ok {
			inv.logger().Info("tool %s blocked by before-tool callback", name)
			return result
		}
	}

	result, err := tool.Call(ctx, tc, args)
	if err != nil {
		inv.logger().Error("tool %s failed: %v", name, err)
		return Failure(err.Error())
	}
	return result
}

func (a *LLMAgent) transferTool() Tool {
	return NewFunctionTool(
		TransferToolName,
		"Transfer the question to another agent.",
		ObjectSchema([]Property{{Name: "agent_name", Type: "string", Description: "the agent to transfer to", Required: true}}),
		func(ctx context.Context, tc *ToolContext, args map[string]any) (any, error) {
			name := StringArg(args, "agent_name")
			if _, err := findAgent(a.cfg.SubAgents, name); err != nil {
				return Failure(err.Error()), nil
			}
			tc.Actions.TransferTo = name
			return Success("Transferring to " + name), nil
		},
	)
}

// decodeOutput decodes text, optionally wrapped in a ```json fence, into a
// new value of the schema's type.
func decodeOutput(text string, schema any) (any, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	ptr := reflect.New(reflect.TypeOf(schema))
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ptr.Interface()); err != nil {
		return nil, fmt.Errorf("output does not match schema %T: %w", schema, err)
	}
	return ptr.Elem().Interface(), nil
}
