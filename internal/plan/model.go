// Package plan reads and mutates the milestone plan: a set of ordered phase
// files, each holding a sequence of milestones with acceptance criteria.
//
// The on-disk encoding is markdown. Each phase lives in its own file
// (phase-NN.md) and each milestone is a section:
//
//	## P01M02: Add retry budget to the fetcher
//	Status: ⬜
//	- [ ] Retries capped at three attempts
//	- [x] Backoff is exponential with jitter
//
// The status line carries exactly one of three marker glyphs (Todo,
// InProgress, Complete); criteria toggle independently between unchecked and
// checked. All mutation goes through [Store], which edits only the addressed
// milestone's section and writes files atomically (temp + rename) so a
// concurrent reader never observes a half-written plan.
//
// Key types:
//   - [Store] - parses phase files and applies the two idempotent mutations
//   - [Locator] - deterministic next-milestone selection
//   - [MilestoneKey] - composite (phase, milestone) identifier
//   - [Status] - typed milestone state, decoupled from the marker glyphs
package plan

// Criterion is a single acceptance criterion line within a milestone.
type Criterion struct {
	// Text is the criterion description without the checkbox prefix.
	Text string

	// Checked reports whether the criterion is marked satisfied.
	Checked bool
}

// Milestone is a single unit of work within a phase.
type Milestone struct {
	// Key is the composite (phase, milestone) identifier.
	Key MilestoneKey

	// Title is the milestone heading text after the key token.
	Title string

	// Status is the decoded lifecycle state.
	Status Status

	// Criteria are the acceptance criteria in file order.
	Criteria []Criterion
}

// AllCriteriaChecked reports whether every acceptance criterion is checked.
// A milestone with no criteria counts as checked.
func (m Milestone) AllCriteriaChecked() bool {
	for _, c := range m.Criteria {
		if !c.Checked {
			return false
		}
	}
	return true
}

// Phase is an ordered container of milestones backed by one plan file.
//
// Phase identity never changes after authoring; milestones may be appended
// but within a phase their numbers are contiguous starting at 1.
type Phase struct {
	// Number is the 1-based phase number.
	Number int

	// FilePath is the absolute path of the backing plan file.
	FilePath string

	// Milestones are the phase's milestones in file order.
	Milestones []Milestone
}

// Milestone returns the milestone with the given number, if present.
func (p Phase) Milestone(number int) (Milestone, bool) {
	for _, m := range p.Milestones {
		if m.Key.Milestone == number {
			return m, true
		}
	}
	return Milestone{}, false
}

// Graph is the fully parsed plan: all phases in ascending phase order.
type Graph struct {
	Phases []Phase
}

// Phase returns the phase with the given number, if present.
func (g Graph) Phase(number int) (Phase, bool) {
	for _, p := range g.Phases {
		if p.Number == number {
			return p, true
		}
	}
	return Phase{}, false
}

// Milestone returns the milestone addressed by key, if present.
func (g Graph) Milestone(key MilestoneKey) (Milestone, bool) {
	p, ok := g.Phase(key.Phase)
	if !ok {
		return Milestone{}, false
	}
	return p.Milestone(key.Milestone)
}
