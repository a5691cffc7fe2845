package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// ErrScriptExhausted is returned by MockModel when no response is left
var ErrScriptExhausted = errors.New("mock model: no scripted response left")

// MockCall is one recorded model call
type MockCall struct {
	Messages []llms.MessageContent
	Options  llms.CallOptions
}

// MockModel is an llms.Model replaying scripted responses in order.
type MockModel struct {
	mu        sync.Mutex
	responses []*llms.ContentResponse
	calls     []MockCall
}

var _ llms.Model = (*MockModel)(nil)

// NewMockModel creates a model answering with responses in order
func NewMockModel(responses ...*llms.ContentResponse) *MockModel {
	return &MockModel{responses: responses}
}

// Push appends responses to the script
func (m *MockModel) Push(responses ...*llms.ContentResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// GenerateContent records the call and returns the next scripted response.
func (m *MockModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Messages: append([]llms.MessageContent(nil), messages...), Options: opts})
	if len(m.responses) == 0 {
		return nil, ErrScriptExhausted
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// Call implements the single prompt interface
func (m *MockModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Calls returns the recorded calls
func (m *MockModel) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Remaining returns the number of unused responses
func (m *MockModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

// TextResponse is a model answer without tool calls
func TextResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text, StopReason: "stop"}}}
}

// ToolCallsResponse is a model answer requesting tool calls
func ToolCallsResponse(calls ...llms.ToolCall) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{ToolCalls: calls, StopReason: "tool_calls"}}}
}

// NewToolCall builds a function tool call with JSON encoded args
func NewToolCall(id, name string, args map[string]any) llms.ToolCall {
	raw, _ := json.Marshal(args)
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      name,
			Arguments: string(raw),
		},
	}
}
