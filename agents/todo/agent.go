package todo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
)

// AgentName is the name of the todo agent
const AgentName = "todo_assistance_agent"

var dateSchema = map[string]any{
	"type":        "object",
	"description": "The planned date as {year, month, day}.",
	"properties": map[string]any{
		"year":  map[string]any{"type": "integer"},
		"month": map[string]any{"type": "integer"},
		"day":   map[string]any{"type": "integer"},
	},
	"required": []string{"year", "month", "day"},
}

// toolMessage is err as reported to the model, starting with a capital.
func toolMessage(err error) string {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}

// dateArg decodes the planned_date argument. A missing or empty object is nil.
func dateArg(args map[string]any) (*Date, error) {
	raw, ok := args["planned_date"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var parts [3]int
	for i, key := range []string{"year", "month", "day"} {
		v, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidDate, key)
		}
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidDate, key)
		}
		parts[i] = int(f)
	}
	return &Date{Year: parts[0], Month: parts[1], Day: parts[2]}, nil
}

// Tools returns the create, update and read tools of s.
func Tools(s *Store) []agent.Tool {
	create := agent.NewFunctionTool("create_todo_tool",
		"Create a new todo. planned_date defaults to the current date.",
		agent.ObjectSchema([]agent.Property{
			{Name: "title", Type: "string", Description: "The title for the todo.", Required: true},
			{Name: "planned_date", Schema: dateSchema},
		}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			date, err := dateArg(args)
			if err != nil {
				return agent.Failure(toolMessage(err)), nil
			}
			todo, err := s.Create(agent.StringArg(args, "title"), date)
			if err != nil {
				return agent.Failure(toolMessage(err)), nil
			}
			tc.Log().Debug("created todo %q", todo.Title)
			return agent.Success(todo.Report()), nil
		})

	update := agent.NewFunctionTool("update_todo_tool",
		"Update an existing todo's status or planned date.",
		agent.ObjectSchema([]agent.Property{
			{Name: "title", Type: "string", Description: "The title of the todo to update.", Required: true},
			{Name: "status", Schema: map[string]any{
				"type":        "string",
				"enum":        []string{string(StatusPending), string(StatusDone), string(StatusCanceled)},
				"description": "The new status.",
			}},
			{Name: "planned_date", Schema: dateSchema},
		}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			date, err := dateArg(args)
			if err != nil {
				return agent.Failure(toolMessage(err)), nil
			}
			todo, err := s.Update(agent.StringArg(args, "title"), Status(agent.StringArg(args, "status")), date)
			if err != nil {
				return agent.Failure(toolMessage(err)), nil
			}
			return agent.Success(todo.Report()), nil
		})

	readAll := agent.NewFunctionTool("read_all_todo_tool",
		"Retrieve all todos keyed by title.", nil,
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			all := s.All()
			titles := make([]string, 0, len(all))
			for title := range all {
				titles = append(titles, title)
			}
			sort.Strings(titles)
			report := make(map[string]any, len(all))
			for _, title := range titles {
				report[title] = all[title].Report()
			}
			return agent.Success(report), nil
		})

	return []agent.Tool{create, update, readAll}
}

const instruction = `You are a Todo Assistant Agent that helps users manage their todos.
You can create, update, and read todos by using the appropriate tools and responding in a clear format.

Todo Schema
    Todo:
        title: string (required)
        status: one of pending | done | canceled
        planned_date: { year, month, day }

Tasks & Tools
    1. Create Todo
        Use create_todo_tool to create a todo.
        Extract from the user query:
            title (required, if missing ask the user to provide one).
            planned_date (if not specified, use the current date).
    2. Update Todo
        Use update_todo_tool to update either or both of status and planned_date.
        title is required and at least one of status or planned_date must be provided.
        If the exact title is unclear, first call read_all_todo_tool to list existing todos
        and try to identify the intended todo. If no matching todo is found, inform the user.
    3. Read All Todos
        Use read_all_todo_tool to fetch all todos.
        Transform the JSON response into a human-readable format for the user.

Examples
    User query: "Create a todo to go to the library tomorrow"
        title: "go to the library", planned_date: current date + 1
    User query: "I have gone to the library"
        Call read_all_todo_tool, identify the todo, then call update_todo_tool with status "done".

Current date: {current_date}`

// New builds the todo agent over s.
func New(model llms.Model, s *Store) (*agent.LLMAgent, error) {
	return agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        AgentName,
		Description: "An agent that creates, updates and lists the user's todos.",
		Model:       model,
		Instruction: instruction,
		Tools:       Tools(s),
		BeforeAgent: func(ctx context.Context, inv *agent.Invocation) (string, bool) {
			inv.State().Set("current_date", s.now().Format("2006-01-02"))
			return "", false
		},
	})
}
