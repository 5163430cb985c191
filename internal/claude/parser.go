package claude

import (
	"bufio"
	"encoding/json"
	"io"
)

// defaultBufferSize bounds a single JSON line. Claude may emit large objects
// (file contents inside tool results), so this is generous.
const defaultBufferSize = 10 * 1024 * 1024

// Parser parses streaming JSON output from the Claude CLI.
//
// Each line of output is a complete JSON object representing a [StreamEvent].
// The channel returned by Parse closes on EOF, reader closure, or an
// unrecoverable read error. Malformed lines are skipped for resilience
// against partial or corrupted output.
type Parser interface {
	Parse(reader io.Reader) <-chan Event
}

// DefaultParser implements [Parser] for the stream-json format.
type DefaultParser struct {
	// BufferSize is the maximum size in bytes of a single JSON line.
	// Defaults to 10MB when zero or negative.
	BufferSize int
}

// NewParser creates a [DefaultParser] with default settings.
func NewParser() *DefaultParser {
	return &DefaultParser{BufferSize: defaultBufferSize}
}

// Parse reads JSON lines from the reader and emits parsed [Event] values on
// the returned channel. Empty and unparseable lines are skipped; the channel
// closes when the reader is exhausted.
func (p *DefaultParser) Parse(reader io.Reader) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(reader)
		bufSize := p.BufferSize
		if bufSize <= 0 {
			bufSize = defaultBufferSize
		}
		scanner.Buffer(make([]byte, 0, 1024*1024), bufSize)

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}

			var streamEvent StreamEvent
			if err := json.Unmarshal([]byte(line), &streamEvent); err != nil {
				continue
			}

			events <- NewEventFromStream(&streamEvent)
		}
		// scanner.Err() intentionally unchecked: EOF and pipe closure are the
		// normal shutdown paths here.
	}()

	return events
}

// ParseSingle parses a single JSON line into an [Event]. Unlike
// [Parser.Parse] it reports malformed input as an error; useful in tests.
func ParseSingle(line string) (Event, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal([]byte(line), &streamEvent); err != nil {
		return Event{}, err
	}
	return NewEventFromStream(&streamEvent), nil
}
