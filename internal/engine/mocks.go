package engine

import (
	"context"
	"sync"
)

// Mock collaborators for tests. Each records its calls and returns
// configurable results, mirroring the claude.MockExecutor pattern.

// MockImplementer implements [Implementer].
type MockImplementer struct {
	Err   error
	Calls []string
}

func (m *MockImplementer) Implement(ctx context.Context, milestoneKey, title string, criteria []string) (Changeset, error) {
	m.Calls = append(m.Calls, milestoneKey)
	return Changeset{}, m.Err
}

// MockChecker implements [Checker].
type MockChecker struct {
	// Results are returned per call; the last repeats when exhausted.
	Results []CheckResult
	Err     error
	Calls   int
}

func (m *MockChecker) RunProjectChecks(ctx context.Context) (CheckResult, error) {
	idx := m.Calls
	m.Calls++
	if m.Err != nil {
		return CheckResult{}, m.Err
	}
	if len(m.Results) == 0 {
		return CheckResult{Passed: true}, nil
	}
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	return m.Results[idx], nil
}

// ReviewCall records one Review invocation.
type ReviewCall struct {
	Domain    Domain
	Changeset Changeset
}

// MockReviewer implements [Reviewer]. It is safe for concurrent use: the
// consensus gate fans reviewer calls out in parallel.
type MockReviewer struct {
	mu sync.Mutex

	// IssuesByDomain scripts findings per domain per round:
	// IssuesByDomain[domain][round]. A domain without a script, or a round
	// past the end of its script, approves.
	IssuesByDomain map[Domain][][]Issue

	Err error

	// Calls records every invocation in arrival order.
	Calls []ReviewCall

	rounds map[Domain]int
}

func (m *MockReviewer) Review(ctx context.Context, domain Domain, changeset Changeset) ([]Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, ReviewCall{Domain: domain, Changeset: changeset})
	if m.Err != nil {
		return nil, m.Err
	}

	if m.rounds == nil {
		m.rounds = make(map[Domain]int)
	}
	round := m.rounds[domain]
	m.rounds[domain]++

	script := m.IssuesByDomain[domain]
	if round >= len(script) {
		return nil, nil
	}
	return script[round], nil
}

// MockVerifier implements [Verifier].
type MockVerifier struct {
	// Results maps criterion text to its verdict. Unlisted criteria are
	// satisfied with canned evidence.
	Results map[string]VerifyResult
	Err     error
	Calls   []string
}

func (m *MockVerifier) VerifyCriterion(ctx context.Context, milestoneKey, criterion string) (VerifyResult, error) {
	m.Calls = append(m.Calls, criterion)
	if m.Err != nil {
		return VerifyResult{}, m.Err
	}
	if r, ok := m.Results[criterion]; ok {
		return r, nil
	}
	return VerifyResult{Satisfied: true, Evidence: "verified"}, nil
}

// MockClassifier implements [Classifier].
type MockClassifier struct {
	Decision Decision
	Err      error
	Calls    []string
}

func (m *MockClassifier) ClassifyMilestone(ctx context.Context, milestoneText, phaseContext string) (Decision, error) {
	m.Calls = append(m.Calls, milestoneText)
	if m.Err != nil {
		return Decision{}, m.Err
	}
	if m.Decision.Kind == "" {
		return Decision{Kind: DecisionProceed}, nil
	}
	return m.Decision, nil
}

// MockFixer implements [Fixer].
type MockFixer struct {
	Err   error
	Calls [][]Issue
}

func (m *MockFixer) ApplyFixes(ctx context.Context, milestoneKey string, issues []Issue) error {
	m.Calls = append(m.Calls, issues)
	return m.Err
}

// MockSnapshotter implements [Snapshotter].
type MockSnapshotter struct {
	// Changesets are returned per call; the last repeats when exhausted.
	Changesets []Changeset
	Err        error
	Calls      int
}

func (m *MockSnapshotter) Snapshot(ctx context.Context) (Changeset, error) {
	idx := m.Calls
	m.Calls++
	if m.Err != nil {
		return Changeset{}, m.Err
	}
	if len(m.Changesets) == 0 {
		return Changeset{}, nil
	}
	if idx >= len(m.Changesets) {
		idx = len(m.Changesets) - 1
	}
	return m.Changesets[idx], nil
}
