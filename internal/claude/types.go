// Package claude spawns the Claude CLI as a subprocess and parses its
// streaming JSON output.
//
// Every external capability of the orchestrator (implementation, review,
// criterion verification, continuation analysis) rides on the same transport:
// a prompt goes in, stream-json events come out, and the final result text is
// collected for the caller to interpret.
//
// Key types:
//   - [Executor]: interface for running Claude CLI commands
//   - [CLIExecutor]: production implementation spawning the real binary
//   - [MockExecutor]: test implementation with scripted events
//   - [Event]: parsed event with convenience accessors
package claude

// StreamEvent is a raw JSON event in Claude's stream-json format. Most code
// works with [Event]; this type exists for the (de)serialization boundary.
type StreamEvent struct {
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype,omitempty"`
	Message       *MessageContent `json:"message,omitempty"`
	ToolUseResult *ToolResult     `json:"tool_use_result,omitempty"`
	Result        string          `json:"result,omitempty"`
	IsError       bool            `json:"is_error,omitempty"`
}

// MessageContent holds the content blocks of an assistant message.
type MessageContent struct {
	Content []ContentBlock `json:"content,omitempty"`
}

// ContentBlock is one block within a message: either text output
// (Type "text") or a tool invocation (Type "tool_use").
type ContentBlock struct {
	Type  string     `json:"type"`
	Text  string     `json:"text,omitempty"`
	Name  string     `json:"name,omitempty"`
	Input *ToolInput `json:"input,omitempty"`
}

// ToolInput carries the parameters of a tool invocation. Which fields are
// populated depends on the tool.
type ToolInput struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	Content     string `json:"content,omitempty"`
}

// ToolResult carries the output of a tool execution.
type ToolResult struct {
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
}

// EventType classifies events from Claude's streaming output.
type EventType string

const (
	// EventTypeSystem is a system event, typically session initialization.
	EventTypeSystem EventType = "system"

	// EventTypeAssistant is output from Claude: text or tool invocations.
	EventTypeAssistant EventType = "assistant"

	// EventTypeUser carries tool execution results returned to Claude.
	EventTypeUser EventType = "user"

	// EventTypeResult ends the session and carries the final result text.
	EventTypeResult EventType = "result"
)

// SubtypeInit is the subtype of the system event that opens a session.
const SubtypeInit = "init"

// Event is a parsed event from Claude's streaming output, with commonly
// needed fields lifted out of the raw structure.
type Event struct {
	// Raw is the original stream event, for callers that need fields the
	// parsed form does not lift.
	Raw *StreamEvent

	Type    EventType
	Subtype string

	// Text is the assistant text when this is a text block event.
	Text string

	// Tool invocation fields, populated for tool_use events.
	ToolName        string
	ToolDescription string
	ToolCommand     string
	ToolFilePath    string

	// Tool result fields, populated for user events carrying tool output.
	ToolStdout      string
	ToolStderr      string
	ToolInterrupted bool

	// ResultText is the final result payload on result events. This is what
	// the engine parses for reviewer findings and analyst decisions.
	ResultText string

	// ResultIsError reports whether the session ended in error.
	ResultIsError bool

	SessionStarted  bool
	SessionComplete bool
}

// NewEventFromStream lifts a raw [StreamEvent] into an [Event].
func NewEventFromStream(raw *StreamEvent) Event {
	e := Event{
		Raw:     raw,
		Type:    EventType(raw.Type),
		Subtype: raw.Subtype,
	}

	switch e.Type {
	case EventTypeSystem:
		if raw.Subtype == SubtypeInit {
			e.SessionStarted = true
		}

	case EventTypeAssistant:
		if raw.Message != nil {
			for _, block := range raw.Message.Content {
				switch block.Type {
				case "text":
					e.Text = block.Text
				case "tool_use":
					e.ToolName = block.Name
					if block.Input != nil {
						e.ToolDescription = block.Input.Description
						e.ToolCommand = block.Input.Command
						e.ToolFilePath = block.Input.FilePath
					}
				}
			}
		}

	case EventTypeUser:
		if raw.ToolUseResult != nil {
			e.ToolStdout = raw.ToolUseResult.Stdout
			e.ToolStderr = raw.ToolUseResult.Stderr
			e.ToolInterrupted = raw.ToolUseResult.Interrupted
		}

	case EventTypeResult:
		e.SessionComplete = true
		e.ResultText = raw.Result
		e.ResultIsError = raw.IsError
	}

	return e
}

// IsText reports whether the event carries assistant text.
func (e Event) IsText() bool {
	return e.Type == EventTypeAssistant && e.Text != ""
}

// IsToolUse reports whether the event is a tool invocation.
func (e Event) IsToolUse() bool {
	return e.Type == EventTypeAssistant && e.ToolName != ""
}

// IsToolResult reports whether the event carries tool output.
func (e Event) IsToolResult() bool {
	return e.Type == EventTypeUser && (e.ToolStdout != "" || e.ToolStderr != "")
}
