// Package analyst implements the continuation gate: before the orchestrator
// starts the next milestone unattended, the analyst classifies it as
// PROCEED or HALT.
//
// The gate is advisory and conservative by construction. It is re-evaluated
// fresh for every milestone, never cached, and its output never mutates the
// plan. Ties resolve to HALT, and a HALT always carries specific questions
// for the operator.
package analyst

import (
	"context"
	"fmt"
	"strings"

	"milepost/internal/engine"
	"milepost/internal/plan"
)

// Gate classifies the next milestone through an [engine.Classifier].
type Gate struct {
	classifier engine.Classifier
}

// NewGate creates a [Gate].
func NewGate(classifier engine.Classifier) *Gate {
	return &Gate{classifier: classifier}
}

// Classify renders the milestone and its phase context and asks the
// classifier for a verdict.
//
// Failure policy: if the classifier itself fails (transport error, contract
// violation in its output), Classify returns a HALT carrying a synthesized
// question naming the failure, together with the error. Halting is always
// safe; proceeding on a broken analyst never is.
func (g *Gate) Classify(ctx context.Context, milestone plan.Milestone, phase plan.Phase) (engine.Decision, error) {
	decision, err := g.classifier.ClassifyMilestone(ctx, plan.FormatMilestone(milestone), phaseContext(phase, milestone.Key))
	if err != nil {
		return engine.Decision{
			Kind:      engine.DecisionHalt,
			Questions: []string{fmt.Sprintf("continuation analyst failed for %s: %v", milestone.Key, err)},
		}, err
	}

	return decision, nil
}

// phaseContext summarizes the milestone's siblings for the classifier: one
// line per milestone with key, status, and title, so the analyst can judge
// whether the work may already be covered elsewhere in the phase.
func phaseContext(phase plan.Phase, current plan.MilestoneKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase %d milestones:\n", phase.Number)
	for _, m := range phase.Milestones {
		marker := " "
		if m.Key == current {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %s [%s] %s\n", marker, m.Key, m.Status, m.Title)
	}
	return b.String()
}
