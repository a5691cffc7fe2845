// Package classify holds two structured output agents: a SQL query
// analyzer and a classifier deciding whether a question needs retrieval.
package classify

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
)

// QueryAnalysis is the structured output of the query analyzer.
type QueryAnalysis struct {
	Tables  []string `json:"tables"`
	Columns []string `json:"columns"`
	Query   string   `json:"query"`
}

// Classification is the structured output of the classifier.
type Classification struct {
	Classification string `json:"classification"`
}

// Classifications
const (
	RAGQuery         = "RAG query"
	FollowupQuestion = "Followup question"
)

// NeedsRetrieval reports whether the knowledge base should be searched.
func (c Classification) NeedsRetrieval() bool {
	return c.Classification == RAGQuery
}

const analyzerInstruction = `You are an AI assistant that generates structured output for SQL queries.
Given the database schema below, identify the relevant tables, columns, and construct the correct SQL query based on a user's request.

Database Schema
    Users(id, name, country)
    Posts(id, title, body, user_id)

Examples
    User query: "how many users there are"
        Output: {"tables": ["users"], "columns": ["id"], "query": "select count(id) from users"}
    User query: "every name in the table"
        Output: {"tables": ["users"], "columns": ["name"], "query": "select name from users"}
    User query: "every user's post"
        Output: {"tables": ["users", "posts"], "columns": ["name", "title", "body"], "query": "select name, title, body from users u join posts p on u.id = p.user_id"}

Output Format
    You must output only a JSON object with the fields tables (string[]), columns (string[]) and query (string).`

const classifierInstruction = `You are an AI assistant for XY Company.
Your task is to classify user queries into one of two categories:

RAG query: the query requires searching the internal knowledge database (e.g., company-specific facts, data, or policies).
Followup question: the query does not require a database search and can be answered directly (e.g., conversational context or task execution).

Examples
    User query: "When was XY Company founded?" -> RAG query
    User query: "Summarize our conversation." -> Followup question
    User query: "How many employees does XY have?" -> RAG query

Output Format
    You must output only a JSON object: {"classification": "RAG query"} or {"classification": "Followup question"}.`

// NewQueryAnalyzer builds the query analyzer agent
func NewQueryAnalyzer(model llms.Model) (*agent.LLMAgent, error) {
	return agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:         "simple_query_analyzer_agent",
		Description:  "User database query analyzer and deconstruction agent.",
		Model:        model,
		Instruction:  analyzerInstruction,
		OutputSchema: QueryAnalysis{},
	})
}

// NewClassifier builds the query classification agent
func NewClassifier(model llms.Model) (*agent.LLMAgent, error) {
	return agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:         "simple_agentic_rag",
		Description:  "A user query classification agent",
		Model:        model,
		Instruction:  classifierInstruction,
		OutputSchema: Classification{},
	})
}

func runOnce(ctx context.Context, a agent.Agent, query string) (*agent.Result, error) {
	inv := &agent.Invocation{
		Session:     &agent.Session{ID: "classify", State: agent.NewState(nil)},
		UserContent: llms.TextParts(llms.ChatMessageTypeHuman, query),
	}
	return a.Run(ctx, inv)
}

// Analyze runs the query analyzer on one question.
func Analyze(ctx context.Context, model llms.Model, query string) (QueryAnalysis, error) {
	a, err := NewQueryAnalyzer(model)
	if err != nil {
		return QueryAnalysis{}, err
	}
	res, err := runOnce(ctx, a, query)
	if err != nil {
		return QueryAnalysis{}, err
	}
	return res.Output.(QueryAnalysis), nil
}

// Classify runs the classifier on one question and rejects classifications
// outside the two known ones.
func Classify(ctx context.Context, model llms.Model, query string) (Classification, error) {
	a, err := NewClassifier(model)
	if err != nil {
		return Classification{}, err
	}
	res, err := runOnce(ctx, a, query)
	if err != nil {
		return Classification{}, err
	}
	c := res.Output.(Classification)
	if c.Classification != RAGQuery && c.Classification != FollowupQuestion {
		return Classification{}, fmt.Errorf("unknown classification %q", c.Classification)
	}
	return c, nil
}
