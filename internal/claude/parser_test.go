package claude

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingle_Text(t *testing.T) {
	event, err := ParseSingle(`{"type":"assistant","message":{"content":[{"type":"text","text":"Hello"}]}}`)
	require.NoError(t, err)

	assert.Equal(t, EventTypeAssistant, event.Type)
	assert.Equal(t, "Hello", event.Text)
	assert.True(t, event.IsText())
	assert.False(t, event.IsToolUse())
}

func TestParseSingle_ToolUse(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"go test ./...","description":"Run tests"}}]}}`
	event, err := ParseSingle(line)
	require.NoError(t, err)

	assert.True(t, event.IsToolUse())
	assert.Equal(t, "Bash", event.ToolName)
	assert.Equal(t, "go test ./...", event.ToolCommand)
	assert.Equal(t, "Run tests", event.ToolDescription)
}

func TestParseSingle_Result(t *testing.T) {
	event, err := ParseSingle(`{"type":"result","result":"DECISION: PROCEED","is_error":false}`)
	require.NoError(t, err)

	assert.True(t, event.SessionComplete)
	assert.Equal(t, "DECISION: PROCEED", event.ResultText)
	assert.False(t, event.ResultIsError)
}

func TestParseSingle_Malformed(t *testing.T) {
	_, err := ParseSingle(`{not json`)
	assert.Error(t, err)
}

func TestParser_Parse_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"system","subtype":"init"}`,
		``,
		`garbage line`,
		`{"type":"result","result":"done"}`,
	}, "\n")

	var events []Event
	for event := range NewParser().Parse(strings.NewReader(input)) {
		events = append(events, event)
	}

	require.Len(t, events, 2)
	assert.True(t, events[0].SessionStarted)
	assert.True(t, events[1].SessionComplete)
	assert.Equal(t, "done", events[1].ResultText)
}

func TestMockExecutor_RecordsAndReplays(t *testing.T) {
	mock := &MockExecutor{
		Events: []Event{
			{Type: EventTypeSystem, SessionStarted: true},
			{Type: EventTypeAssistant, Text: "working"},
		},
		ExitCode:  0,
		FinalText: "all good",
	}

	var seen []Event
	res, err := mock.Execute(context.Background(), Request{Prompt: "do it", Model: "sonnet"}, func(e Event) {
		seen = append(seen, e)
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "all good", res.FinalText)
	assert.Len(t, seen, 2)
	assert.Equal(t, []string{"do it"}, mock.RecordedPrompts)
	assert.Equal(t, []string{"sonnet"}, mock.RecordedModels)
}

func TestMockExecutor_PerCallResponses(t *testing.T) {
	mock := &MockExecutor{
		Responses: []Result{
			{ExitCode: 0, FinalText: "first"},
			{ExitCode: 0, FinalText: "second"},
		},
	}

	ctx := context.Background()
	r1, err := mock.Execute(ctx, Request{Prompt: "a"}, nil)
	require.NoError(t, err)
	r2, err := mock.Execute(ctx, Request{Prompt: "b"}, nil)
	require.NoError(t, err)
	r3, err := mock.Execute(ctx, Request{Prompt: "c"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "first", r1.FinalText)
	assert.Equal(t, "second", r2.FinalText)
	// Past the end, the last response repeats.
	assert.Equal(t, "second", r3.FinalText)
}
