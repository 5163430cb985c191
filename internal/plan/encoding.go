package plan

import (
	"fmt"
	"regexp"
	"strings"
)

// This file is the only place that touches the text encoding of the plan
// format. Everything else in the package (and the rest of the program)
// operates on [Milestone], [Status], and [Criterion] values.

var (
	// headingPattern matches a milestone heading: "## P01M02: Title".
	headingPattern = regexp.MustCompile(`^##\s+(P\d{1,3}M\d{1,3}):\s*(.+?)\s*$`)

	// statusLinePattern matches the status line under a heading.
	statusLinePattern = regexp.MustCompile(`^Status:\s*(\S+)\s*$`)

	// criterionPattern matches an acceptance criterion checkbox line.
	criterionPattern = regexp.MustCompile(`^-\s+\[( |x|X)\]\s+(.+?)\s*$`)

	// phaseFilePattern matches phase file names: "phase-01.md".
	phaseFilePattern = regexp.MustCompile(`^phase-(\d{1,3})\.md$`)
)

// section is the line span of one milestone inside a phase file.
//
// start is the heading line index; end is the index one past the last line
// belonging to the milestone (the next heading, or len(lines)). statusLine
// is -1 when the milestone has no status line.
type section struct {
	key        MilestoneKey
	title      string
	start      int
	end        int
	statusLine int
	status     Status
}

// splitLines splits file content into lines, preserving emptiness semantics
// for a later joinLines round-trip.
func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

// joinLines is the inverse of splitLines.
func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// parseSections scans phase file lines and returns the milestone sections in
// file order. A heading with an unparseable key token, or a milestone missing
// its status line, is a structural error.
func parseSections(path string, lines []string) ([]section, error) {
	var sections []section

	for i, line := range lines {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		key, err := ParseKey(m[1])
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, i+1, err)
		}

		if n := len(sections); n > 0 {
			sections[n-1].end = i
		}
		sections = append(sections, section{
			key:        key,
			title:      m[2],
			start:      i,
			end:        len(lines),
			statusLine: -1,
		})
	}

	for si := range sections {
		s := &sections[si]
		for i := s.start + 1; i < s.end; i++ {
			m := statusLinePattern.FindStringSubmatch(lines[i])
			if m == nil {
				continue
			}
			status, ok := statusFromMarker(m[1])
			if !ok {
				return nil, fmt.Errorf("%s: line %d: unknown status marker %q: %w", path, i+1, m[1], ErrMalformedState)
			}
			s.statusLine = i
			s.status = status
			break
		}
		if s.statusLine < 0 {
			return nil, fmt.Errorf("%s: milestone %s has no status line: %w", path, s.key, ErrMalformedState)
		}
	}

	return sections, nil
}

// parseCriteria extracts the checkbox lines within a section's span.
func parseCriteria(lines []string, s section) []Criterion {
	var criteria []Criterion
	for i := s.start + 1; i < s.end; i++ {
		m := criterionPattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		criteria = append(criteria, Criterion{
			Text:    m[2],
			Checked: m[1] == "x" || m[1] == "X",
		})
	}
	return criteria
}

// checkAllCriteria rewrites every unchecked criterion box within the section
// span to checked. Lines outside the span are never touched. Returns the
// number of boxes flipped (zero means the call was a no-op).
//
// The rewritten line is reconstructed from the same capture the parser uses,
// so every line parseCriteria accepts as an unchecked criterion is flipped,
// whatever its whitespace.
func checkAllCriteria(lines []string, s section) int {
	flipped := 0
	for i := s.start + 1; i < s.end; i++ {
		m := criterionPattern.FindStringSubmatch(lines[i])
		if m == nil || m[1] != " " {
			continue
		}
		lines[i] = "- [x] " + m[2]
		flipped++
	}
	return flipped
}

// setStatusMarker rewrites the section's status line to carry the marker for
// newStatus.
func setStatusMarker(lines []string, s section, newStatus Status) {
	lines[s.statusLine] = "Status: " + newStatus.Marker()
}

// FormatMilestone renders a milestone back into its plan-file encoding.
// Used when authoring plan files programmatically (and by tests).
func FormatMilestone(m Milestone) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s: %s\n", m.Key, m.Title)
	fmt.Fprintf(&b, "Status: %s\n", m.Status.Marker())
	for _, c := range m.Criteria {
		box := " "
		if c.Checked {
			box = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", box, c.Text)
	}
	return b.String()
}
