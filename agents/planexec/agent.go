package planexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
)

// Actions the executor understands
const (
	ActionFindEmail    = "find_email"
	ActionDeleteEmail  = "delete_email"
	ActionWriteMessage = "write_message"
	ActionSendEmail    = "send_email"
)

// Executor runs planned actions against a contact book.
type Executor struct {
	Contacts *ContactBook
	// Writer composes messages for write_message.
	Writer agent.Tool
}

func (e *Executor) writeMessage(ctx context.Context, tc *agent.ToolContext, topic string) agent.Response {
	if strings.TrimSpace(topic) == "" {
		return agent.Failure("Topic is required to write a message.")
	}
	out, err := e.Writer.Call(ctx, tc, map[string]any{"request": topic})
	if err != nil {
		return agent.Failuref("Failed to write message: %v", err)
	}
	switch v := out.(type) {
	case agent.Response:
		return v
	case string:
		return agent.Success(v)
	}
	return agent.Success(fmt.Sprint(out))
}

// Execute runs actions in order. find_email sets the "email" variable and
// write_message sets "message" for the actions after them. The first
// failure stops the plan. The response of the last action is returned.
func (e *Executor) Execute(ctx context.Context, tc *agent.ToolContext, actions []string, variables map[string]string) agent.Response {
	if variables == nil {
		variables = map[string]string{}
	}
	for i, action := range actions {
		var resp agent.Response
		switch action {
		case ActionFindEmail:
			resp = e.Contacts.FindEmail(variables["name"])
		case ActionDeleteEmail:
			resp = e.Contacts.DeleteEmail(variables["email"])
		case ActionWriteMessage:
			resp = e.writeMessage(ctx, tc, variables["topic"])
		case ActionSendEmail:
			resp = SendEmail(variables["email"], variables["message"])
		default:
			return agent.Failuref("Invalid action: '%s'.", action)
		}
		tc.Log().Debug("plan action %s: %s", action, resp.Status)
		if !resp.OK() {
			return resp
		}

		switch action {
		case ActionFindEmail:
			variables["email"] = fmt.Sprint(resp.Report)
		case ActionWriteMessage:
			variables["message"] = fmt.Sprint(resp.Report)
		}
		if i == len(actions)-1 {
			return resp
		}
	}
	return agent.Failure("No actions executed.")
}

// Tool exposes Execute as plan_executor_tool.
func (e *Executor) Tool() agent.Tool {
	return agent.NewFunctionTool("plan_executor_tool",
		"Execute a sequence of actions using variables extracted from the user query.",
		agent.ObjectSchema([]agent.Property{
			{Name: "actions", Required: true, Schema: map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string", "enum": []string{ActionFindEmail, ActionDeleteEmail, ActionWriteMessage, ActionSendEmail}},
				"description": "Actions to execute sequentially, e.g. [\"find_email\", \"write_message\", \"send_email\"].",
			}},
			{Name: "variables", Required: true, Schema: map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
				"description":          "Variables extracted from the query: name, topic, email, message.",
			}},
		}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			var actions []string
			if raw, ok := args["actions"].([]any); ok {
				for _, a := range raw {
					if s, ok := a.(string); ok {
						actions = append(actions, s)
					}
				}
			}
			variables := map[string]string{}
			if raw, ok := args["variables"].(map[string]any); ok {
				for k, v := range raw {
					if s, ok := v.(string); ok {
						variables[k] = s
					}
				}
			}
			return e.Execute(ctx, tc, actions, variables), nil
		})
}

const writerInstruction = `You are an AI Message Writer Agent that composes long, sincere email messages based on a given topic.
Your task is to write a well-structured, professional email message tailored to the topic provided.

Guidelines
    - Tone: Use a sincere, polite, and professional tone unless otherwise specified.
    - Length: Write a message of 150-300 words, ensuring it is detailed and meaningful.
    - Content: Address the topic directly, providing relevant details, context, or sentiment.
    - Output: Return only the final message text, formatted as plain text suitable for email, with no additional commentary.
Notes
    - Fill placeholder names (e.g., "[Recipient]") if the recipient's name is known.`

const plannerInstruction = `You are an AI Planning and Execution Agent that creates and executes action plans based on user queries.
Extract variables from the query, plan a sequence of actions, and execute them using the plan_executor_tool.

Available Actions
    find_email: Finds an email address by contact name.
      Available contacts: %s.
      Pick the available contact closest to what the user said, e.g. mother is mom, clay is bro(clay).
    delete_email: Deletes a contact's email using the email address.
    write_message: Writes a message for a given topic (e.g., "birthday wish message").
    send_email: Sends a message to a specified email address.

Tasks
    Extract the variables name, email and topic. If variables are missing, ask for them.
    Plan the actions. They run sequentially, later actions use the results of earlier ones.
      Send message to a contact: ["find_email", "write_message", "send_email"]
      Delete email: ["find_email", "delete_email"]
      Write message only: ["write_message"]
    Call plan_executor_tool with the variables and actions, then summarize the report for the user.
    If no close match is found for a contact name, answer "No matching contact found for '[name]'."
    If an action fails, return the error message from plan_executor_tool.`

// New builds the planner agent over book.
func New(model llms.Model, book *ContactBook) (*agent.LLMAgent, error) {
	writer, err := agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "message_writer_agent",
		Description: "An AI agent that composes long, sincere, and professional email messages based on a specified topic.",
		Model:       model,
		Instruction: writerInstruction,
	})
	if err != nil {
		return nil, err
	}
	exec := &Executor{Contacts: book, Writer: agent.NewAgentTool(writer)}

	names := make([]string, 0)
	for _, n := range book.Names() {
		names = append(names, "'"+n+"'")
	}
	return agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "plan_execute_agent",
		Description: "An AI agent that plans and executes sequences of email actions such as finding, writing, sending or deleting.",
		Model:       model,
		Instruction: fmt.Sprintf(plannerInstruction, "["+strings.Join(names, ", ")+"]"),
		Tools:       []agent.Tool{exec.Tool()},
	})
}
