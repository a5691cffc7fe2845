package analytics

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
)

const salesCSV = "product,units,price,region\nwidget,10,2.5,north\ngadget,20,3,south\ngizmo,30,,north\n"

func TestParseCSV(t *testing.T) {
	tbl, err := ParseCSV("data", []byte(salesCSV))
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{"product", TypeObject},
		{"units", TypeInt},
		{"price", TypeFloat},
		{"region", TypeObject},
	}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []any{"gizmo", int64(30), nil, "north"}, tbl.Rows[2])

	info := tbl.Info()
	assert.True(t, strings.HasPrefix(info, "Table name=data, columns info: product  object\n"))
	assert.Contains(t, info, "units    int64")

	_, err = ParseCSV("data", []byte("a,b\n1\n"))
	assert.Error(t, err)
	_, err = ParseCSV("data", nil)
	assert.Error(t, err)
}

func TestInferTypeIntWithGaps(t *testing.T) {
	tbl, err := ParseCSV("data", []byte("n\n1\n\n3\n"))
	require.NoError(t, err)
	assert.Equal(t, TypeFloat, tbl.Columns[0].Type)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDBReplaceAndQuery(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	tbl, err := ParseCSV("data", []byte(salesCSV))
	require.NoError(t, err)
	require.NoError(t, db.Replace(ctx, tbl))

	res, err := db.Query(ctx, `SELECT SUM(units) AS total FROM data WHERE region = 'north'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"total"}, res.Columns)
	assert.Equal(t, [][]any{{int64(40)}}, res.Rows)

	other, err := ParseCSV("data", []byte("x\nhello\n"))
	require.NoError(t, err)
	require.NoError(t, db.Replace(ctx, other))
	res, err = db.Query(ctx, "SELECT * FROM data")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, res.Columns)
	assert.Equal(t, [][]any{{"hello"}}, res.Rows)

	_, err = db.Query(ctx, "SELECT * FROM missing")
	assert.Error(t, err)
}

func TestCleanSQL(t *testing.T) {
	assert.Equal(t, "SELECT 1", cleanSQL("```sql\nSELECT 1\n```"))
	assert.Equal(t, "SELECT 1", cleanSQL("  SELECT 1 "))
}

func lastToolResponse(t *testing.T, call agent.MockCall) llms.ToolCallResponse {
	t.Helper()
	msgs := call.Messages
	resp, ok := msgs[len(msgs)-1].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	return resp
}

func TestAnalyticsAgent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(openTestDB(t), "")
	model := agent.NewMockModel()
	root, err := New(model, svc)
	require.NoError(t, err)
	r := agent.NewRunner("analytics", root, nil)

	model.Push(
		agent.ToolCallsResponse(agent.NewToolCall("1", "query_handler_agent", map[string]any{"request": "total units"})),
		agent.TextResponse("Please upload a CSV file first."),
	)
	_, err = r.Run(ctx, "u", "s", "How many units did we sell?")
	require.NoError(t, err)
	assert.Equal(t, noTableMessage, lastToolResponse(t, model.Calls()[1]).Content)

	model.Push(
		agent.ToolCallsResponse(agent.NewToolCall("2", "file_processor_tool", nil)),
		agent.TextResponse("Your file is stored."),
	)
	upload := llms.MessageContent{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart("Process this CSV file"),
			llms.BinaryContent{MIMEType: "text/csv", Data: []byte(salesCSV)},
		},
	}
	out, err := r.RunContent(ctx, "u", "s", upload)
	require.NoError(t, err)
	assert.Equal(t, "Your file is stored.", out)
	assert.JSONEq(t, `{"status":"success","report":"File processed successfully. You can now ask analytical questions."}`,
		lastToolResponse(t, model.Calls()[3]).Content)

	model.Push(
		agent.ToolCallsResponse(agent.NewToolCall("3", "query_handler_agent", map[string]any{"request": "total units"})),
		agent.TextResponse("```sql\nSELECT SUM(units) AS total FROM data\n```"),
		agent.ToolCallsResponse(agent.NewToolCall("4", "run_query", nil)),
		agent.TextResponse("We sold 60 units."),
		agent.TextResponse("We sold 60 units in total."),
	)
	out, err = r.Run(ctx, "u", "s", "How many units did we sell?")
	require.NoError(t, err)
	assert.Equal(t, "We sold 60 units in total.", out)

	calls := model.Calls()
	assert.Contains(t, agent.TextOf(calls[5].Messages[0]), "units    int64")
	queryResult := lastToolResponse(t, calls[7]).Content
	assert.Contains(t, queryResult, `"row_count":1`)
	assert.Contains(t, queryResult, "60")
	assert.Equal(t, "We sold 60 units.", lastToolResponse(t, calls[8]).Content)
	assert.Equal(t, 0, model.Remaining())
}

func TestFileProcessorWithoutCSV(t *testing.T) {
	svc := NewService(openTestDB(t), "")
	tc := &agent.ToolContext{
		State:       agent.NewState(nil),
		Actions:     &agent.Actions{},
		UserContent: llms.TextParts(llms.ChatMessageTypeHuman, "store this"),
	}
	out, err := svc.FileProcessorTool().Call(context.Background(), tc, nil)
	require.NoError(t, err)
	assert.Equal(t, agent.Failure("Please provide a valid CSV file"), out)
	_, ok := tc.State.Get(KeyTableInfo)
	assert.False(t, ok)
}
