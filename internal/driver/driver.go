// Package driver orchestrates a single milestone from location through
// commit.
//
// The per-milestone state machine is:
//
//	Located -> Resuming -> Implementing -> CriteriaVerified -> Reviewed -> Committed
//
// Committed is the terminal success state. A failure at Implementing or
// CriteriaVerified halts in place and is reported to the operator; partial
// file edits are never rolled back automatically - fixes are applied
// forward.
//
// The driver uses dependency injection throughout: the plan store, resume
// manager, external engine capabilities, consensus gate, and git committer
// are all interfaces or injected values, so the full flow is testable with
// mocks.
package driver

import (
	"context"
	"errors"
	"fmt"

	"milepost/internal/engine"
	"milepost/internal/output"
	"milepost/internal/plan"
	"milepost/internal/resume"
)

// State names one stage of the per-milestone state machine.
type State int

const (
	StateLocated State = iota
	StateResuming
	StateImplementing
	StateCriteriaVerified
	StateReviewed
	StateCommitted
)

// stateCount is the number of states, for progress rendering.
const stateCount = 6

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLocated:
		return "Located"
	case StateResuming:
		return "Resuming"
	case StateImplementing:
		return "Implementing"
	case StateCriteriaVerified:
		return "CriteriaVerified"
	case StateReviewed:
		return "Reviewed"
	case StateCommitted:
		return "Committed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrMilestoneClaimed indicates the located milestone is not in Todo: some
// other run already claimed it. Fresh executions refuse it; the resume flow
// is the only path that re-enters an InProgress milestone.
var ErrMilestoneClaimed = errors.New("milestone already claimed")

// ConsensusGate is the reviewer consensus dependency. The review.Gate type
// implements it.
type ConsensusGate interface {
	Run(ctx context.Context, milestoneKey string, changeset engine.Changeset) (engine.Changeset, error)
}

// Committer creates the single atomic commit of the plan mutation plus the
// implementation changeset. The gitcmd.Git type implements it.
type Committer interface {
	CommitAll(ctx context.Context, message string) error
}

// Driver executes milestones one at a time.
type Driver struct {
	store       *plan.Store
	locator     *plan.Locator
	resume      *resume.Manager
	implementer engine.Implementer
	checker     engine.Checker
	verifier    engine.Verifier
	snapshotter engine.Snapshotter
	gate        ConsensusGate
	git         Committer
	printer     *output.Printer
}

// NewDriver creates a [Driver] with its dependencies.
func NewDriver(
	store *plan.Store,
	locator *plan.Locator,
	resumeMgr *resume.Manager,
	implementer engine.Implementer,
	checker engine.Checker,
	verifier engine.Verifier,
	snapshotter engine.Snapshotter,
	gate ConsensusGate,
	git Committer,
	printer *output.Printer,
) *Driver {
	return &Driver{
		store:       store,
		locator:     locator,
		resume:      resumeMgr,
		implementer: implementer,
		checker:     checker,
		verifier:    verifier,
		snapshotter: snapshotter,
		gate:        gate,
		git:         git,
		printer:     printer,
	}
}

// RunNext locates the next eligible milestone and executes it. Returns the
// executed key, or [plan.ErrPlanComplete] when no eligible work remains.
func (d *Driver) RunNext(ctx context.Context) (plan.MilestoneKey, error) {
	key, err := d.locator.Next()
	if err != nil {
		return plan.MilestoneKey{}, err
	}
	return key, d.Execute(ctx, key)
}

// Execute runs a fresh milestone through the full state machine. The
// milestone must be in Todo; anything else is [ErrMilestoneClaimed].
func (d *Driver) Execute(ctx context.Context, key plan.MilestoneKey) error {
	return d.run(ctx, key, false)
}

// Resume re-enters an interrupted milestone. InProgress is accepted;
// the implementation is re-driven from the top of the state machine, which
// is safe because every mutation along the way is idempotent.
func (d *Driver) Resume(ctx context.Context, key plan.MilestoneKey) error {
	return d.run(ctx, key, true)
}

func (d *Driver) run(ctx context.Context, key plan.MilestoneKey, resuming bool) error {
	// Located.
	d.step(StateLocated)
	milestone, err := d.store.FindMilestone(key)
	if err != nil {
		return err
	}
	switch milestone.Status {
	case plan.StatusTodo:
	case plan.StatusInProgress:
		if !resuming {
			return fmt.Errorf("%s is InProgress: %w", key, ErrMilestoneClaimed)
		}
	case plan.StatusComplete:
		return fmt.Errorf("%s is Complete: %w", key, ErrMilestoneClaimed)
	}
	d.printer.Info("milestone %s: %s", key, milestone.Title)

	// Resuming: persist the in-flight record before any code mutation so a
	// crash from here on is recoverable.
	d.step(StateResuming)
	if _, err := d.resume.Create(key.String(), key.Phase, d.store.PhaseFilePath(key.Phase)); err != nil {
		return err
	}
	if err := d.store.SetStatus(key, plan.StatusInProgress); err != nil {
		if !errors.Is(err, plan.ErrAlreadyInState) {
			return err
		}
		d.printer.Warn("%v", err)
	}

	// Implementing.
	d.step(StateImplementing)
	criteria := make([]string, len(milestone.Criteria))
	for i, c := range milestone.Criteria {
		criteria[i] = c.Text
	}
	if _, err := d.implementer.Implement(ctx, key.String(), milestone.Title, criteria); err != nil {
		return fmt.Errorf("implementation of %s failed: %w", key, err)
	}

	// The whole project must be green, not only changed files: a milestone
	// cannot complete while it leaves unrelated code broken.
	checks, err := d.checker.RunProjectChecks(ctx)
	if err != nil {
		return fmt.Errorf("project checks errored for %s: %w", key, err)
	}
	if !checks.Passed {
		return fmt.Errorf("%s: %w: %s", key, engine.ErrChecksFailed, checks.Details)
	}

	// CriteriaVerified: independent evidence per criterion, not the
	// implementation step's self-report.
	d.step(StateCriteriaVerified)
	for i, c := range milestone.Criteria {
		result, err := d.verifier.VerifyCriterion(ctx, key.String(), c.Text)
		if err != nil {
			return fmt.Errorf("verification of %s criterion %d failed: %w", key, i+1, err)
		}
		if !result.Satisfied {
			return fmt.Errorf("%s criterion %d unverified: %s", key, i+1, result.Evidence)
		}
		d.printer.Info("criterion %d verified: %s", i+1, result.Evidence)
	}

	// Reviewed: hand the full changeset to the consensus gate.
	d.step(StateReviewed)
	changeset, err := d.snapshotter.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot changeset for %s: %w", key, err)
	}
	if _, err := d.gate.Run(ctx, key.String(), changeset); err != nil {
		return err
	}

	// Committed: plan mutations plus the implementation changeset in one
	// atomic commit, then the resume record flips to complete.
	d.step(StateCommitted)
	if err := d.store.MarkCriteriaComplete(key); err != nil {
		return err
	}
	if err := d.store.SetStatus(key, plan.StatusComplete); err != nil {
		if !errors.Is(err, plan.ErrAlreadyInState) {
			return err
		}
		d.printer.Warn("%v", err)
	}
	if err := d.git.CommitAll(ctx, commitMessage(key, milestone.Title)); err != nil {
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	if err := d.resume.Complete(key.String()); err != nil {
		return err
	}

	d.printer.Success("milestone %s committed", key)
	return nil
}

func (d *Driver) step(s State) {
	d.printer.Step(int(s)+1, stateCount, s.String())
}

// commitMessage builds the structured commit message embedding the milestone
// key and title.
func commitMessage(key plan.MilestoneKey, title string) string {
	return fmt.Sprintf("%s: %s\n\nmilestone: %s", key, title, key)
}
