package claude

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Request describes one Claude CLI invocation.
type Request struct {
	// Prompt is passed via -p.
	Prompt string

	// Model overrides the default model when non-empty (--model).
	Model string
}

// Result is the outcome of one Claude CLI invocation.
type Result struct {
	// ExitCode is the subprocess exit code.
	ExitCode int

	// FinalText is the result payload from the closing result event, falling
	// back to the last assistant text when no result event arrived.
	FinalText string

	// IsError reports whether the session's result event flagged an error.
	IsError bool

	// Duration is the wall-clock time of the invocation.
	Duration time.Duration
}

// EventHandler receives each parsed event as it streams in. Used by the
// printer to render progress live. May be nil.
type EventHandler func(Event)

// Executor runs Claude CLI invocations.
//
// Implementations must deliver every parsed event to the handler in stream
// order before returning. [CLIExecutor] is the production implementation;
// [MockExecutor] scripts events for tests.
type Executor interface {
	Execute(ctx context.Context, req Request, handle EventHandler) (Result, error)
}

// CLIExecutor spawns the real Claude CLI binary.
type CLIExecutor struct {
	// BinaryPath is the Claude CLI binary. Defaults to "claude".
	BinaryPath string

	// OutputFormat passed via --output-format. Defaults to "stream-json".
	OutputFormat string

	parser Parser
}

// NewCLIExecutor creates a [CLIExecutor] for the given binary path.
// An empty binaryPath falls back to "claude" on PATH.
func NewCLIExecutor(binaryPath string) *CLIExecutor {
	if binaryPath == "" {
		binaryPath = "claude"
	}
	return &CLIExecutor{
		BinaryPath:   binaryPath,
		OutputFormat: "stream-json",
		parser:       NewParser(),
	}
}

// Execute runs the Claude CLI with the request's prompt, streaming parsed
// events to handle, and returns the collected [Result].
//
// The subprocess inherits the orchestrator's working directory so Claude
// operates on the same workspace. Cancellation of ctx kills the subprocess.
func (e *CLIExecutor) Execute(ctx context.Context, req Request, handle EventHandler) (Result, error) {
	args := []string{
		"--dangerously-skip-permissions",
		"-p", req.Prompt,
		"--output-format", e.OutputFormat,
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.BinaryPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("failed to start %s: %w", e.BinaryPath, err)
	}

	res := Result{}
	var lastText string
	for event := range e.parser.Parse(stdout) {
		if event.IsText() {
			lastText = event.Text
		}
		if event.SessionComplete {
			res.FinalText = event.ResultText
			res.IsError = event.ResultIsError
		}
		if handle != nil {
			handle(event)
		}
	}
	if res.FinalText == "" {
		res.FinalText = lastText
	}

	err = cmd.Wait()
	res.Duration = time.Since(start)

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = 1
		return res, fmt.Errorf("%s failed: %w (stderr: %s)", e.BinaryPath, err, strings.TrimSpace(stderr.String()))
	}

	return res, nil
}

// MockExecutor implements [Executor] without spawning processes.
type MockExecutor struct {
	// Events are streamed to the handler in order on every Execute call.
	Events []Event

	// ExitCode, FinalText, IsError populate the returned [Result].
	ExitCode  int
	FinalText string
	IsError   bool

	// Err, when set, is returned from Execute.
	Err error

	// RecordedPrompts collects the prompt of every Execute call in order.
	RecordedPrompts []string

	// RecordedModels collects the model of every Execute call in order.
	RecordedModels []string

	// Responses, when non-empty, overrides FinalText/ExitCode per call:
	// call i uses Responses[min(i, len-1)].
	Responses []Result

	calls int
}

// Execute records the request, replays the scripted events, and returns the
// configured result.
func (m *MockExecutor) Execute(ctx context.Context, req Request, handle EventHandler) (Result, error) {
	m.RecordedPrompts = append(m.RecordedPrompts, req.Prompt)
	m.RecordedModels = append(m.RecordedModels, req.Model)
	call := m.calls
	m.calls++

	if m.Err != nil {
		return Result{ExitCode: 1}, m.Err
	}

	for _, event := range m.Events {
		if handle != nil {
			handle(event)
		}
	}

	if len(m.Responses) > 0 {
		idx := call
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		return m.Responses[idx], nil
	}

	return Result{
		ExitCode:  m.ExitCode,
		FinalText: m.FinalText,
		IsError:   m.IsError,
	}, nil
}
