// Package weather is a weather assistant that delegates greetings and
// farewells to sub-agents and blocks some cities with a tool guardrail.
package weather

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
)

const (
	AppName   = "weather_tutorial_app"
	UserID    = "user_1"
	SessionID = "session_001"

	// State keys
	KeyPreferredName    = "user_preferred_name"
	KeyLastCheckedCity  = "last_checked_city"
	KeyLastReport       = "last_weather_report"
	KeyGuardrailBlocked = "guardrail_tool_block_triggered"
)

var reports = map[string]string{
	"newyork": "The weather in New York is sunny with a temperature of 25°C.",
	"london":  "It's cloudy in London with a temperature of 15°C.",
	"tokyo":   "Tokyo is experiencing light rain and a temperature of 18°C.",
}

// blockedCities are rejected by the guardrail before get_weather runs.
var blockedCities = map[string]bool{"paris": true}

// InitialState is the state sessions of the weather app start with.
func InitialState() map[string]any {
	return map[string]any{KeyPreferredName: "Zack"}
}

// GetWeather looks a city up in the mock weather database. Case and spaces
// are ignored.
func GetWeather(city string) agent.Response {
	if strings.TrimSpace(city) == "" {
		return agent.Failure("City name is required and cannot be empty.")
	}
	normalized := strings.ReplaceAll(strings.ToLower(city), " ", "")
	if report, ok := reports[normalized]; ok {
		return agent.Success(report)
	}
	return agent.Failuref("Sorry, I don't have weather information for '%s'.", city)
}

// NewGetWeatherTool returns the get_weather tool. It records the requested
// city in state.
func NewGetWeatherTool() agent.Tool {
	return agent.NewFunctionTool("get_weather",
		"Retrieves the current weather report for a specified city.",
		agent.ObjectSchema([]agent.Property{
			{Name: "city", Type: "string", Description: "The name of the city (e.g., \"New York\", \"London\", \"Tokyo\").", Required: true},
		}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			city := agent.StringArg(args, "city")
			if strings.TrimSpace(city) == "" {
				return GetWeather(city), nil
			}
			tc.State.Set(KeyLastCheckedCity, city)
			tc.Log().Debug("get_weather city=%s", city)
			return GetWeather(city), nil
		})
}

func preferredName(tc *agent.ToolContext, args map[string]any) string {
	if name := agent.StringArg(args, "name"); name != "" {
		return name
	}
	if name, ok := tc.State.GetString(KeyPreferredName); ok && name != "" {
		return name
	}
	return "there"
}

// NewSayHelloTool greets the user by name, falling back to the preferred
// name in state.
func NewSayHelloTool() agent.Tool {
	return agent.NewFunctionTool("say_hello",
		"Provides a simple greeting. Uses the name given, else the user's preferred name.",
		agent.ObjectSchema([]agent.Property{{Name: "name", Type: "string", Description: "The name of the person to greet."}}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			return fmt.Sprintf("Hello, %s!", preferredName(tc, args)), nil
		})
}

// NewSayGoodbyeTool says goodbye to the user.
func NewSayGoodbyeTool() agent.Tool {
	return agent.NewFunctionTool("say_goodbye",
		"Provides a simple farewell message to conclude the conversation.",
		agent.ObjectSchema([]agent.Property{{Name: "name", Type: "string", Description: "The name of the person leaving."}}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			return fmt.Sprintf("Goodbye! %s, Have a great day.", preferredName(tc, args)), nil
		})
}

// Guardrail blocks get_weather calls for blocked cities.
func Guardrail(ctx context.Context, tool agent.Tool, args map[string]any, tc *agent.ToolContext) (any, bool) {
	if tool.Name() != "get_weather" {
		return nil, false
	}
	city := agent.StringArg(args, "city")
	if !blockedCities[strings.ToLower(city)] {
		return nil, false
	}
	tc.State.Set(KeyGuardrailBlocked, true)
	tc.Log().Warn("guardrail blocked get_weather for %s", city)
	return agent.Failuref("Policy restriction: Weather checks for '%s' are currently disabled by a tool guardrail.", capitalize(city)), true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

// New builds the weather agent team on model.
func New(model llms.Model) (*agent.LLMAgent, error) {
	greeting, err := agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "greeting_agent",
		Description: "Handles simple greetings and hellos using the 'say_hello' tool.",
		Model:       model,
		Instruction: "You are the Greeting Agent. Your ONLY task is to provide a friendly greeting to the user. " +
			"Use the 'say_hello' tool to generate the greeting. " +
			"If the user provides their name, make sure to pass it to the tool. " +
			"Do not engage in any other conversation or tasks.",
		Tools: []agent.Tool{NewSayHelloTool()},
	})
	if err != nil {
		return nil, err
	}
	farewell, err := agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "farewell_agent",
		Description: "Handles simple farewells and goodbyes using the 'say_goodbye' tool.",
		Model:       model,
		Instruction: "You are the Farewell Agent. Your ONLY task is to provide a polite goodbye message. " +
			"Use the 'say_goodbye' tool when the user indicates they are leaving or ending the conversation " +
			"(e.g., using words like 'bye', 'goodbye', 'thanks bye', 'see you'). " +
			"Do not perform any other actions.",
		Tools: []agent.Tool{NewSayGoodbyeTool()},
	})
	if err != nil {
		return nil, err
	}
	return agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "weather_agent_v2",
		Description: "The main coordinator agent. Handles weather requests and delegates greetings/farewells to specialists.",
		Model:       model,
		Instruction: "You are the main Weather Agent coordinating a team. Your primary responsibility is to provide weather information. " +
			"Use the 'get_weather' tool ONLY for specific weather requests (e.g., 'weather in London'). " +
			"You have specialized sub-agents: " +
			"1. 'greeting_agent': Handles simple greetings like 'Hi', 'Hello'. Delegate to it for these. " +
			"2. 'farewell_agent': Handles simple farewells like 'Bye', 'See you'. Delegate to it for these. " +
			"Analyze the user's query. If it's a greeting, delegate to 'greeting_agent'. If it's a farewell, delegate to 'farewell_agent'. " +
			"If it's a weather request, handle it yourself using 'get_weather'. " +
			"For anything else, respond appropriately or state you cannot handle it.",
		Tools:      []agent.Tool{NewGetWeatherTool()},
		SubAgents:  []agent.Agent{greeting, farewell},
		OutputKey:  KeyLastReport,
		BeforeTool: Guardrail,
	})
}
