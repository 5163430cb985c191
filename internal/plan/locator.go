package plan

import "fmt"

// Locator selects the single next eligible milestone from the plan.
//
// Selection is a pure function of the last completed milestone key, not a
// scan for the first Todo: this keeps the result deterministic even when
// milestones were completed out of strict file order, and guarantees exactly
// one candidate with no ambiguity between multiple Todo items.
type Locator struct {
	store *Store
}

// NewLocator creates a [Locator] over the given store.
func NewLocator(store *Store) *Locator {
	return &Locator{store: store}
}

// Next returns the key of the next eligible milestone.
//
// The selection rule:
//  1. Scan phases ascending, milestones ascending, recording the last
//     milestone whose status is Complete (later completions override
//     earlier ones, even out of numeric order).
//  2. With no completion anywhere the candidate is P01M01; if that milestone
//     does not exist the plan is misconfigured and [ErrNotFound] is returned.
//  3. Otherwise the candidate is last-complete+1 within the same phase,
//     regardless of its current status.
//  4. Failing that, the first milestone of the following phase.
//  5. Failing that, [ErrPlanComplete].
func (l *Locator) Next() (MilestoneKey, error) {
	graph, err := l.store.LoadGraph()
	if err != nil {
		return MilestoneKey{}, err
	}
	return NextInGraph(graph)
}

// NextInGraph applies the locator selection rule to an already-loaded graph.
// Used by the status reporter, which loads the graph once for all its
// aggregates.
func NextInGraph(graph Graph) (MilestoneKey, error) {
	var lastComplete MilestoneKey

	for _, phase := range graph.Phases {
		for _, m := range phase.Milestones {
			if m.Status == StatusComplete {
				lastComplete = m.Key
			}
		}
	}

	if lastComplete.IsZero() {
		first := MilestoneKey{Phase: 1, Milestone: 1}
		if _, ok := graph.Milestone(first); !ok {
			return MilestoneKey{}, fmt.Errorf("plan has no completed milestones and %s does not exist: %w", first, ErrNotFound)
		}
		return first, nil
	}

	if candidate := lastComplete.Next(); hasMilestone(graph, candidate) {
		return candidate, nil
	}

	if candidate := lastComplete.NextPhase(); hasMilestone(graph, candidate) {
		return candidate, nil
	}

	return MilestoneKey{}, ErrPlanComplete
}

func hasMilestone(graph Graph, key MilestoneKey) bool {
	_, ok := graph.Milestone(key)
	return ok
}
