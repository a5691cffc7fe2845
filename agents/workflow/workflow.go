// Package workflow is a coordinator agent with simple tools and an
// iterative research loop that drafts and refines a report.
package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
	"github.com/smallnest/ragagents/tool"
)

const (
	// KeyDraft holds the current research draft
	KeyDraft = "draft"
	// KeyRefinementPoint holds the reviewer's next point to research
	KeyRefinementPoint = "refinement_point"

	// MaxResearchIterations bounds the research loop
	MaxResearchIterations = 5
)

// ErrNoDraft is returned by RenderDraft before any research ran.
var ErrNoDraft = errors.New("no research draft in session state")

// LimitedWeather only knows the weather of New York.
func LimitedWeather(city string) agent.Response {
	if strings.TrimSpace(city) == "" {
		return agent.Failure("City name is required and cannot be empty.")
	}
	if strings.ToLower(city) == "new york" {
		return agent.Success("The weather in New York is sunny with a temperature of 25 degrees Celsius (77 degrees Fahrenheit).")
	}
	return agent.Failuref("Weather information for '%s' is not available.", city)
}

// CountLetters returns how often each character occurs in word.
func CountLetters(word string) agent.Response {
	if strings.TrimSpace(word) == "" {
		return agent.Failure("Word is required and cannot be empty.")
	}
	counts := make(map[string]int)
	for _, r := range word {
		counts[string(r)]++
	}
	return agent.Success(counts)
}

func newLimitedWeatherTool() agent.Tool {
	return agent.NewFunctionTool("limited_weather_tool",
		"Retrieves the current weather report for a specified city.",
		agent.ObjectSchema([]agent.Property{{Name: "city", Type: "string", Description: "The name of the city.", Required: true}}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			return LimitedWeather(agent.StringArg(args, "city")), nil
		})
}

func newLetterCounterTool() agent.Tool {
	return agent.NewFunctionTool("letter_counter_tool",
		"Counts the frequency of each character in a given word.",
		agent.ObjectSchema([]agent.Property{{Name: "word", Type: "string", Description: "The word to count letters from.", Required: true}}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			return CountLetters(agent.StringArg(args, "word")), nil
		})
}

// newExitLoopTool ends the research loop.
func newExitLoopTool() agent.Tool {
	return agent.NewFunctionTool("exit_loop",
		"Signals the end of the iterative process when no further changes are needed.", nil,
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			tc.Log().Info("exit_loop triggered by %s", tc.AgentName)
			tc.Actions.Escalate = true
			return map[string]any{}, nil
		})
}

const researchInstruction = `You are an AI Research Assistant that answers user questions by conducting research using the web_search tool.
Your task is to create or refine a research draft based on the user's query.

Tasks
    1. New Research: if no refinement point is provided, start a new research draft.
       Use web_search to gather relevant information and produce a concise, well-structured draft.
       When a search result looks promising, read the full page with fetch_page.
    2. Refine Existing Draft: if a refinement point is provided, research that specific aspect
       and incorporate the new information into the existing draft.

Guidelines
    - Extract the topic or keywords from the user's query.
    - Format the draft in markdown (headings, bullet points or paragraphs).
    - Avoid duplicating information already in the draft unless it adds value.

Variables
- refinement_point = {refinement_point?}
- draft = {draft?}`

const refinementInstruction = `You are an AI Research Refinement Agent responsible for reviewing a research draft and identifying areas for improvement.

Tasks
    1. Review the current draft and identify missing, incomplete, or unclear aspects.
    2. If improvements are needed, output a single, specific "point to consider" for the research agent.
    3. If the draft is complete, call exit_loop and do not output anything.

Variables
    - draft = {draft}`

const coordinatorInstruction = `You are an AI Coordination Agent that handles user queries by delegating tasks to appropriate tools or sub-agents.

Tasks
1. Weather Queries: use limited_weather_tool with the city from the query.
   If no city is specified, answer "Please specify a city for the weather query."
2. Letter Counting Queries: use letter_counter_tool with the word from the query.
   If no word is specified, answer "Please specify a word to count letters."
3. Research Queries: delegate to research_agent_loop.

Do not use tools for tasks they are not designed for.`

// New builds the coordinator. tools are given to the research agent,
// typically web_search and fetch_page; nil tools are skipped and without
// any the agent researches from its own knowledge.
func New(model llms.Model, tools ...agent.Tool) (*agent.LLMAgent, error) {
	var researchTools []agent.Tool
	for _, t := range tools {
		if t != nil {
			researchTools = append(researchTools, t)
		}
	}
	research, err := agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "research_agent",
		Description: "Conducts web research to create or refine a draft.",
		Model:       model,
		Instruction: researchInstruction,
		Tools:       researchTools,
		OutputKey:   KeyDraft,
	})
	if err != nil {
		return nil, err
	}
	refinement, err := agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "refinement_agent",
		Description: "Reviews research drafts, suggests refinements, or signals completion.",
		Model:       model,
		Instruction: refinementInstruction,
		Tools:       []agent.Tool{newExitLoopTool()},
		OutputKey:   KeyRefinementPoint,
	})
	if err != nil {
		return nil, err
	}
	loop, err := agent.NewLoopAgent("research_agent_loop",
		"Researches a topic, iteratively refining the draft until it is complete.",
		MaxResearchIterations, research, refinement)
	if err != nil {
		return nil, err
	}
	return agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "workflow_agent",
		Description: "Coordinates weather, letter counting and research queries.",
		Model:       model,
		Instruction: coordinatorInstruction,
		Tools:       []agent.Tool{newLimitedWeatherTool(), newLetterCounterTool()},
		SubAgents:   []agent.Agent{loop},
	})
}

// RenderDraft renders the research draft in state as sanitized HTML.
func RenderDraft(state *agent.State) (string, error) {
	draft, ok := state.GetString(KeyDraft)
	if !ok || strings.TrimSpace(draft) == "" {
		return "", ErrNoDraft
	}
	return tool.RenderMarkdown(draft), nil
}
