// Package report summarizes plan progress. It is strictly read-only: it
// loads the plan graph, counts statuses, and identifies the next milestone,
// mutating nothing.
package report

import (
	"errors"
	"fmt"

	"milepost/internal/output"
	"milepost/internal/plan"
)

// PhaseSummary is the per-phase status breakdown.
type PhaseSummary struct {
	Number     int
	Todo       int
	InProgress int
	Complete   int
}

// Total is the milestone count in the phase.
func (p PhaseSummary) Total() int {
	return p.Todo + p.InProgress + p.Complete
}

// Percent is the phase completion percentage, 0 for an empty phase.
func (p PhaseSummary) Percent() float64 {
	if p.Total() == 0 {
		return 0
	}
	return 100 * float64(p.Complete) / float64(p.Total())
}

// Summary is the whole-plan status breakdown.
type Summary struct {
	Phases     []PhaseSummary
	Todo       int
	InProgress int
	Complete   int

	// Next is the next eligible milestone, when the plan has one.
	Next *plan.Milestone

	// PlanComplete reports that every milestone is Complete.
	PlanComplete bool
}

// Total is the milestone count across all phases.
func (s Summary) Total() int {
	return s.Todo + s.InProgress + s.Complete
}

// Percent is the overall completion percentage, 0 for an empty plan.
func (s Summary) Percent() float64 {
	if s.Total() == 0 {
		return 0
	}
	return 100 * float64(s.Complete) / float64(s.Total())
}

// Reporter builds plan summaries.
type Reporter struct {
	store *plan.Store
}

// NewReporter creates a [Reporter] over the given store.
func NewReporter(store *plan.Store) *Reporter {
	return &Reporter{store: store}
}

// Summarize loads the plan and computes the status breakdown and next
// milestone.
func (r *Reporter) Summarize() (Summary, error) {
	graph, err := r.store.LoadGraph()
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, phase := range graph.Phases {
		ps := PhaseSummary{Number: phase.Number}
		for _, m := range phase.Milestones {
			switch m.Status {
			case plan.StatusTodo:
				ps.Todo++
			case plan.StatusInProgress:
				ps.InProgress++
			case plan.StatusComplete:
				ps.Complete++
			}
		}
		summary.Phases = append(summary.Phases, ps)
		summary.Todo += ps.Todo
		summary.InProgress += ps.InProgress
		summary.Complete += ps.Complete
	}

	key, err := plan.NextInGraph(graph)
	switch {
	case err == nil:
		if m, ok := graph.Milestone(key); ok {
			summary.Next = &m
		}
	case errors.Is(err, plan.ErrPlanComplete):
		summary.PlanComplete = true
	default:
		return Summary{}, err
	}

	return summary, nil
}

// Render prints the summary through the printer.
func (r *Reporter) Render(p *output.Printer, s Summary) {
	p.Header("Plan status")
	for _, ps := range s.Phases {
		p.Info("phase %02d: %d/%d complete (%.0f%%)%s", ps.Number, ps.Complete, ps.Total(), ps.Percent(), phaseNote(ps))
	}
	p.Info("overall:  %d/%d complete (%.0f%%)", s.Complete, s.Total(), s.Percent())

	switch {
	case s.PlanComplete:
		p.Success("plan complete")
	case s.Next != nil:
		p.Info("next: %s %s", s.Next.Key, s.Next.Title)
	}
}

func phaseNote(ps PhaseSummary) string {
	if ps.InProgress == 0 {
		return ""
	}
	return fmt.Sprintf(", %d in progress", ps.InProgress)
}
