package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"milepost/internal/engine"
	"milepost/internal/output"
)

// Sentinel errors for the consensus gate.
var (
	// ErrReviewRejected indicates a round ended without unanimous approval.
	// Recoverable inside the gate's fix-and-retry loop; it reaches callers
	// only wrapped in the escalation error, when the final round was still
	// rejected.
	ErrReviewRejected = errors.New("review rejected")

	// ErrEscalated indicates the round bound was exhausted without
	// consensus. Terminal: the gate fails loudly for human escalation
	// instead of looping forever.
	ErrEscalated = errors.New("review escalated after round limit")
)

// Round is the ephemeral record of one consensus round. It exists only for
// the duration of the loop and is never persisted.
type Round struct {
	// ID identifies the round in output.
	ID string

	// Number is the 1-based round counter.
	Number int

	// Changeset is the snapshot every reviewer in this round received.
	Changeset engine.Changeset

	// Findings are the per-domain results.
	Findings map[engine.Domain][]engine.Issue
}

// Approved reports whether every detected domain returned zero issues.
func (r Round) Approved() bool {
	for _, issues := range r.Findings {
		if len(issues) > 0 {
			return false
		}
	}
	return true
}

// AllIssues flattens the round's findings in deterministic domain order.
func (r Round) AllIssues() []engine.Issue {
	var domains []engine.Domain
	for d := range r.Findings {
		domains = append(domains, d)
	}
	sortDomains(domains)

	var issues []engine.Issue
	for _, d := range domains {
		issues = append(issues, r.Findings[d]...)
	}
	return issues
}

// Gate drives changesets through multi-domain review until unanimous
// approval or the round bound.
//
// Each round fans out one concurrent review call per detected domain, every
// call receiving the complete changeset, and blocks until all return
// (wait-all: no cancel-on-first-rejection, so the next round never runs on
// partial information). On rejection the fixer is applied, the changeset is
// re-snapshotted, and the gate restarts from domain detection - a fix may
// introduce cross-domain regressions, so re-querying only the failed domain
// would be unsound.
type Gate struct {
	registry    *Registry
	snapshotter engine.Snapshotter
	fixer       engine.Fixer
	printer     *output.Printer
	maxRounds   int
}

// NewGate creates a [Gate].
func NewGate(registry *Registry, snapshotter engine.Snapshotter, fixer engine.Fixer, printer *output.Printer, maxRounds int) *Gate {
	if maxRounds <= 0 {
		maxRounds = 10
	}
	return &Gate{
		registry:    registry,
		snapshotter: snapshotter,
		fixer:       fixer,
		printer:     printer,
		maxRounds:   maxRounds,
	}
}

// Run reviews the changeset for the given milestone until unanimous
// approval. It returns the approved changeset (which may differ from the
// input after fix rounds).
//
// A changeset with zero detected domains skips review and is approved as-is.
// Exhausting the round bound returns [ErrEscalated] wrapping the last
// round's findings.
func (g *Gate) Run(ctx context.Context, milestoneKey string, changeset engine.Changeset) (engine.Changeset, error) {
	for number := 1; number <= g.maxRounds; number++ {
		domains := g.registry.DetectDomains(changeset)
		if len(domains) == 0 {
			g.printer.Info("no reviewer domains detected; skipping review")
			return changeset, nil
		}

		round, err := g.runRound(ctx, number, domains, changeset)
		if err != nil {
			return engine.Changeset{}, err
		}

		if round.Approved() {
			g.printer.Success("review approved by %d domain(s) in round %d", len(domains), number)
			return changeset, nil
		}

		issues := round.AllIssues()
		g.printer.Warn("review round %d rejected with %d issue(s)", number, len(issues))
		for _, issue := range issues {
			g.printer.Info("  %s", issue)
		}

		if err := g.fixer.ApplyFixes(ctx, milestoneKey, issues); err != nil {
			return engine.Changeset{}, fmt.Errorf("failed to apply review fixes: %w", err)
		}

		changeset, err = g.snapshotter.Snapshot(ctx)
		if err != nil {
			return engine.Changeset{}, fmt.Errorf("failed to re-snapshot changeset: %w", err)
		}
	}

	return engine.Changeset{}, fmt.Errorf("%w in all %d rounds for %s: %w", ErrReviewRejected, g.maxRounds, milestoneKey, ErrEscalated)
}

// runRound fans review out to every domain concurrently and waits for all.
type domainResult struct {
	domain engine.Domain
	issues []engine.Issue
	err    error
}

func (g *Gate) runRound(ctx context.Context, number int, domains []engine.Domain, changeset engine.Changeset) (Round, error) {
	round := Round{
		ID:        uuid.NewString(),
		Number:    number,
		Changeset: changeset,
		Findings:  make(map[engine.Domain][]engine.Issue, len(domains)),
	}

	g.printer.Info("review round %d: %d domain(s), %d file(s)", number, len(domains), len(changeset.Files))

	results := make(chan domainResult, len(domains))
	var wg sync.WaitGroup

	for _, domain := range domains {
		reviewer, ok := g.registry.Reviewer(domain)
		if !ok {
			return Round{}, fmt.Errorf("no reviewer registered for domain %q", domain)
		}

		wg.Add(1)
		go func(domain engine.Domain, reviewer engine.Reviewer) {
			defer wg.Done()
			// Every invocation receives the complete changeset, never a
			// filtered subset.
			issues, err := reviewer.Review(ctx, domain, changeset)
			results <- domainResult{domain: domain, issues: issues, err: err}
		}(domain, reviewer)
	}

	wg.Wait()
	close(results)

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s reviewer failed: %w", res.domain, res.err)
			}
			continue
		}
		round.Findings[res.domain] = res.issues
	}
	if firstErr != nil {
		return Round{}, firstErr
	}

	return round, nil
}
