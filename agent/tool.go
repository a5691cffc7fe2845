package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/log"
)

// ErrToolNotFound is reported when the model calls a tool the agent does not have.
var ErrToolNotFound = errors.New("tool not found")

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the record tools return for domain results and failures.
type Response struct {
	Status       string `json:"status"`
	Report       any    `json:"report,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Success returns a successful Response
func Success(report any) Response {
	return Response{Status: StatusSuccess, Report: report}
}

// Failure returns a failed Response
func Failure(message string) Response {
	return Response{Status: StatusError, ErrorMessage: message}
}

// Failuref formats a failed Response
func Failuref(format string, args ...any) Response {
	return Failure(fmt.Sprintf(format, args...))
}

// OK reports whether the response succeeded
func (r Response) OK() bool {
	return r.Status == StatusSuccess
}

// Actions are side effects a tool requests from the runtime.
type Actions struct {
	// Escalate ends the enclosing loop agent and the current agent turn.
	Escalate bool
	// TransferTo hands the turn to the named sub-agent.
	TransferTo string
}

// ToolContext is passed to every tool call.
type ToolContext struct {
	AgentName   string
	State       *State
	Actions     *Actions
	UserContent llms.MessageContent
	Logger      log.Logger
}

// Tool is a function the model can call.
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON schema of the arguments object.
	Parameters() map[string]any
	Call(ctx context.Context, tc *ToolContext, args map[string]any) (any, error)
}

// ToolFunc is the signature of a function tool
type ToolFunc func(ctx context.Context, tc *ToolContext, args map[string]any) (any, error)

// FunctionTool is a Tool backed by a function
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          ToolFunc
}

var _ Tool = (*FunctionTool)(nil)

// NewFunctionTool creates a tool. A nil parameters schema declares an
// object without properties.
func NewFunctionTool(name, description string, parameters map[string]any, fn ToolFunc) *FunctionTool {
	if parameters == nil {
		parameters = ObjectSchema(nil)
	}
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

func (t *FunctionTool) Name() string               { return t.name }
func (t *FunctionTool) Description() string        { return t.description }
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

func (t *FunctionTool) Call(ctx context.Context, tc *ToolContext, args map[string]any) (any, error) {
	return t.fn(ctx, tc, args)
}

// Property describes one argument of a tool
type Property struct {
	Name        string
	Type        string
	Description string
	Required    bool
	// Schema replaces the generated property schema when set.
	Schema map[string]any
}

// ObjectSchema builds the JSON schema of an arguments object.
func ObjectSchema(props []Property) map[string]any {
	properties := make(map[string]any, len(props))
	required := []string{}
	for _, p := range props {
		s := p.Schema
		if s == nil {
			s = map[string]any{"type": p.Type}
			if p.Description != "" {
				s["description"] = p.Description
			}
		}
		properties[p.Name] = s
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// StringArg returns args[key] when it is a string.
func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// Definition converts a tool into the declaration sent to the model.
func Definition(t Tool) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// encodeResult renders a tool result as the content of a tool message.
func encodeResult(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Log returns the turn logger, never nil
func (tc *ToolContext) Log() log.Logger {
	return log.OrNoOp(tc.Logger)
}
