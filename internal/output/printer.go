// Package output renders orchestrator progress to the terminal.
//
// The [Printer] is the single place that formats banners, streamed Claude
// events, reviewer findings, and summaries. It writes to an injected
// io.Writer so tests can capture output, and styles everything with lipgloss.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"milepost/internal/claude"
)

// Truncation defaults, overridable via [Printer.SetTruncation].
const (
	defaultTruncateLines  = 20
	defaultTruncateLength = 60
)

// Printer formats and writes orchestrator output.
type Printer struct {
	w io.Writer

	truncateLines  int
	truncateLength int

	headerStyle   lipgloss.Style
	stepStyle     lipgloss.Style
	toolStyle     lipgloss.Style
	dimStyle      lipgloss.Style
	successStyle  lipgloss.Style
	failureStyle  lipgloss.Style
	warnStyle     lipgloss.Style
	questionStyle lipgloss.Style
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a [Printer] writing to w. Tests pass a buffer.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{
		w:              w,
		truncateLines:  defaultTruncateLines,
		truncateLength: defaultTruncateLength,
		headerStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		stepStyle:      lipgloss.NewStyle().Bold(true),
		toolStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		dimStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		successStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		failureStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		warnStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		questionStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

// SetTruncation overrides the output truncation limits. Non-positive values
// keep the current setting.
func (p *Printer) SetTruncation(lines, length int) {
	if lines > 0 {
		p.truncateLines = lines
	}
	if length > 0 {
		p.truncateLength = length
	}
}

// Header prints a prominent section banner.
func (p *Printer) Header(format string, args ...any) {
	fmt.Fprintln(p.w, p.headerStyle.Render(fmt.Sprintf(format, args...)))
}

// Step prints a numbered progress line, e.g. "[2/6] Reviewed".
func (p *Printer) Step(index, total int, name string) {
	fmt.Fprintln(p.w, p.stepStyle.Render(fmt.Sprintf("[%d/%d] %s", index, total, name)))
}

// Info prints a plain informational line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.warnStyle.Render("warning: "+fmt.Sprintf(format, args...)))
}

// Error prints a failure line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, p.failureStyle.Render("error: "+fmt.Sprintf(format, args...)))
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Failure prints a failure summary line.
func (p *Printer) Failure(format string, args ...any) {
	fmt.Fprintln(p.w, p.failureStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Duration prints a dim elapsed-time line.
func (p *Printer) Duration(label string, d time.Duration) {
	fmt.Fprintln(p.w, p.dimStyle.Render(fmt.Sprintf("%s in %s", label, d.Round(time.Millisecond))))
}

// Prompt prints an inline prompt with no trailing newline, for interactive
// input.
func (p *Printer) Prompt(format string, args ...any) {
	fmt.Fprint(p.w, p.questionStyle.Render(fmt.Sprintf(format, args...))+" ")
}

// Questions prints the analyst's question list under a HALT.
func (p *Printer) Questions(questions []string) {
	for i, q := range questions {
		fmt.Fprintln(p.w, p.questionStyle.Render(fmt.Sprintf("  %d. %s", i+1, q)))
	}
}

// Event renders one streamed Claude event.
func (p *Printer) Event(e claude.Event) {
	switch {
	case e.SessionStarted:
		fmt.Fprintln(p.w, p.dimStyle.Render("● session started"))
	case e.IsText():
		fmt.Fprintf(p.w, "%s\n", e.Text)
	case e.IsToolUse():
		p.toolUse(e)
	case e.IsToolResult():
		p.toolResult(e)
	case e.SessionComplete:
		fmt.Fprintln(p.w, p.dimStyle.Render("● session complete"))
	}
}

func (p *Printer) toolUse(e claude.Event) {
	fmt.Fprintln(p.w, p.toolStyle.Render("┌─ "+e.ToolName))
	if e.ToolDescription != "" {
		fmt.Fprintln(p.w, p.toolStyle.Render("│  "+p.truncateLine(e.ToolDescription)))
	}
	if e.ToolCommand != "" {
		fmt.Fprintln(p.w, p.toolStyle.Render("│  $ "+p.truncateLine(e.ToolCommand)))
	}
	if e.ToolFilePath != "" {
		fmt.Fprintln(p.w, p.toolStyle.Render("│  "+e.ToolFilePath))
	}
	fmt.Fprintln(p.w, p.toolStyle.Render("└─"))
}

func (p *Printer) toolResult(e claude.Event) {
	if e.ToolStdout != "" {
		fmt.Fprintln(p.w, p.dimStyle.Render(indent(p.truncateBlock(e.ToolStdout))))
	}
	if e.ToolStderr != "" {
		fmt.Fprintln(p.w, p.dimStyle.Render(indent("[stderr] "+p.truncateBlock(e.ToolStderr))))
	}
}

// truncateLine shortens a single line to the configured length, counting
// runes so multi-byte characters are never split. The effective length is
// clamped to leave room for the ellipsis.
func (p *Printer) truncateLine(s string) string {
	limit := p.truncateLength
	if limit < 4 {
		limit = 4
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// truncateBlock keeps the head and tail of a long multi-line block, eliding
// the middle.
func (p *Printer) truncateBlock(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= p.truncateLines {
		return s
	}
	keep := p.truncateLines / 2
	head := strings.Join(lines[:keep], "\n")
	tail := strings.Join(lines[len(lines)-keep:], "\n")
	return fmt.Sprintf("%s\n... (%d lines omitted) ...\n%s", head, len(lines)-2*keep, tail)
}

func indent(s string) string {
	return "   " + strings.ReplaceAll(s, "\n", "\n   ")
}
