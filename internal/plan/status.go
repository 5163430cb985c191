package plan

import "fmt"

// Status represents the lifecycle state of a milestone.
//
// All internal logic operates on this enum; the marker glyphs used by the
// on-disk plan files are confined to the encoding layer in this package.
// Valid transitions are Todo -> InProgress -> Complete. Complete is terminal
// and never reverted by the orchestrator.
type Status int

const (
	// StatusTodo means the milestone has not been started.
	StatusTodo Status = iota

	// StatusInProgress means execution of the milestone has begun.
	StatusInProgress

	// StatusComplete means all acceptance criteria are checked and the
	// reviewer consensus gate approved the changeset. Terminal.
	StatusComplete
)

// Marker glyphs used in the plan files. Exactly one per status.
const (
	markerTodo       = "⬜"
	markerInProgress = "🚧"
	markerComplete   = "✅"
)

// String returns the human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "Todo"
	case StatusInProgress:
		return "InProgress"
	case StatusComplete:
		return "Complete"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Marker returns the glyph used to encode the status in a plan file.
func (s Status) Marker() string {
	switch s {
	case StatusInProgress:
		return markerInProgress
	case StatusComplete:
		return markerComplete
	default:
		return markerTodo
	}
}

// IsValid reports whether s is one of the three defined statuses.
func (s Status) IsValid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusComplete
}

// statusFromMarker decodes a marker glyph back into a [Status].
func statusFromMarker(marker string) (Status, bool) {
	switch marker {
	case markerTodo:
		return StatusTodo, true
	case markerInProgress:
		return StatusInProgress, true
	case markerComplete:
		return StatusComplete, true
	}
	return StatusTodo, false
}
