package analytics

import (
	"context"
	"errors"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
)

const (
	// KeyTableInfo holds the description of the uploaded table
	KeyTableInfo = "table_info"
	// KeySQLQuery holds the generated SQL query
	KeySQLQuery = "sql_query"

	// DefaultTable is the table uploads are stored in
	DefaultTable = "data"
	// MaxRows caps the rows run_query returns to the model.
	MaxRows = 100

	noTableMessage = "No processed CSV files found. Please upload a CSV file first."
)

// Service owns the analytics database.
type Service struct {
	DB    *DB
	Table string
}

// NewService stores uploads in table of db
func NewService(db *DB, table string) *Service {
	if table == "" {
		table = DefaultTable
	}
	return &Service{DB: db, Table: table}
}

// csvPart returns the data of the first text/csv part of msg.
func csvPart(msg llms.MessageContent) ([]byte, bool) {
	for _, part := range msg.Parts {
		if b, ok := part.(llms.BinaryContent); ok && b.MIMEType == "text/csv" {
			return b.Data, true
		}
	}
	return nil, false
}

// FileProcessorTool stores the CSV attached to the user message and
// records the table description in state.
func (s *Service) FileProcessorTool() agent.Tool {
	return agent.NewFunctionTool("file_processor_tool",
		"Processes the CSV file attached to the message and stores it in a SQLite database.", nil,
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			data, ok := csvPart(tc.UserContent)
			if !ok {
				return agent.Failure("Please provide a valid CSV file"), nil
			}
			t, err := ParseCSV(s.Table, data)
			if err != nil {
				return agent.Failuref("Failed to read CSV file: %v", err), nil
			}
			tc.State.Set(KeyTableInfo, t.Info())
			if err := s.DB.Replace(ctx, t); err != nil {
				return agent.Failuref("Failed to save data to SQLite: %v", err), nil
			}
			tc.Log().Info("stored %d rows in table %s", len(t.Rows), t.Name)
			return agent.Success("File processed successfully. You can now ask analytical questions."), nil
		})
}

// cleanSQL removes a markdown code fence around a query.
func cleanSQL(q string) string {
	q = strings.TrimSpace(q)
	if strings.HasPrefix(q, "```") {
		q = strings.TrimPrefix(q, "```sqlite")
		q = strings.TrimPrefix(q, "```sql")
		q = strings.TrimPrefix(q, "```")
		q = strings.TrimSuffix(strings.TrimSpace(q), "```")
	}
	return strings.TrimSpace(q)
}

// RenderResult formats rows as a markdown table.
func RenderResult(res *QueryResult) string {
	tw := table.NewWriter()
	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)
	for i, row := range res.Rows {
		if i == MaxRows {
			break
		}
		tw.AppendRow(table.Row(row))
	}
	return tw.RenderMarkdown()
}

// RunQueryTool executes the query argument, or the generated query in
// state when the argument is empty.
func (s *Service) RunQueryTool() agent.Tool {
	return agent.NewFunctionTool("run_query",
		"Executes a SQLite query. Without a query argument the query stored under sql_query is run.",
		agent.ObjectSchema([]agent.Property{{Name: "query", Type: "string", Description: "The SQL query to run."}}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			query := agent.StringArg(args, "query")
			if query == "" {
				query, _ = tc.State.GetString(KeySQLQuery)
			}
			query = cleanSQL(query)
			if query == "" {
				return agent.Failure("No SQL query to run"), nil
			}
			res, err := s.DB.Query(ctx, query)
			if err != nil {
				return agent.Failuref("Failed to run query: %v", err), nil
			}
			tc.Log().Debug("query returned %d rows: %s", len(res.Rows), query)
			return agent.Success(map[string]any{
				"row_count": len(res.Rows),
				"truncated": len(res.Rows) > MaxRows,
				"table":     RenderResult(res),
			}), nil
		})
}

// RequireTable answers the turn when no CSV file was processed yet.
func RequireTable(ctx context.Context, inv *agent.Invocation) (string, bool) {
	if _, ok := inv.State().Get(KeyTableInfo); !ok {
		return noTableMessage, true
	}
	return "", false
}

const rootInstruction = `You are CSV Analytics Agent (CAA), designed to process CSV files and perform data analytics.

Purpose:
- Process uploaded CSV files and store them in a local SQLite database
- Answer analytical questions about the stored data

Capabilities:
- File Processing: Handles CSV file uploads with file_processor_tool
- Analytics: Uses query_handler_agent to convert natural language questions to SQL and return formatted results
- Error Handling: Provides clear error messages for invalid inputs or operations

Examples:
- "Process this CSV file" -> Processes and stores the file
- "What are the top-selling products?" -> Analyzes data and returns results
- If a person greets you or asks for your introduction, respond with who you are and your purpose

Limitations:
- Only handles CSV file processing and related analytics
- Cannot perform unrelated tasks (e.g., general knowledge questions)`

const questionToSQLInstruction = `Convert natural language requests into SQLite-compatible SQL queries.

Table information:
{table_info}

Requirements:
- Generate precise, executable SQLite queries using the table and column information above
- Return only the final SQL query string
- If conversion fails, return a clear error message describing the issue
- Ensure queries are safe and optimized for SQLite`

const sqlToMessageInstruction = `Convert SQL query results into human-readable responses.

Requirements:
- Use the run_query tool to execute the SQL query stored under sql_query:
{sql_query?}
- Format results in a clear, user-friendly manner
- Use tables, lists, or descriptive text as appropriate
- Handle empty results gracefully
- Include relevant context from the query in the response`

// QueryHandler builds the sequential question to SQL to message agent.
func (s *Service) QueryHandler(model llms.Model) (*agent.SequentialAgent, error) {
	toSQL, err := agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "question_to_sql_agent",
		Description: "Converts user questions into SQLite-compatible SQL queries",
		Model:       model,
		Instruction: questionToSQLInstruction,
		OutputKey:   KeySQLQuery,
	})
	if err != nil {
		return nil, err
	}
	toMessage, err := agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "sql_to_message_agent",
		Description: "Converts SQL query results into user-friendly messages",
		Model:       model,
		Instruction: sqlToMessageInstruction,
		Tools:       []agent.Tool{s.RunQueryTool()},
	})
	if err != nil {
		return nil, err
	}
	return agent.NewSequentialAgent("query_handler_agent",
		"Handles user queries by converting them to SQL and formatting results",
		toSQL, toMessage,
	).WithBeforeAgent(RequireTable), nil
}

// New builds the root analytics agent.
func New(model llms.Model, s *Service) (*agent.LLMAgent, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("analytics: database is required")
	}
	handler, err := s.QueryHandler(model)
	if err != nil {
		return nil, err
	}
	return agent.NewLLMAgent(agent.LLMAgentConfig{
		Name:        "file_analytics_agent",
		Description: "Main agent that processes CSV uploads and delegates analytical questions",
		Model:       model,
		Instruction: rootInstruction,
		Tools:       []agent.Tool{s.FileProcessorTool(), agent.NewAgentTool(handler)},
	})
}
