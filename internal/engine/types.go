// Package engine defines the external collaborator capabilities the
// orchestrator consumes - implementation, project checks, domain review,
// criterion verification, and continuation analysis - together with their
// data shapes, and provides Claude-backed implementations of each.
//
// The orchestrator's only contract with these capabilities is input/output
// shape. In particular, every review invocation receives the complete
// changeset, never a filtered subset: a reviewer that only sees part of a
// change cannot be trusted to approve it.
package engine

import (
	"context"
	"path/filepath"
	"strings"
)

// Domain is a reviewer specialization key, derived from the file paths a
// changeset touches (e.g. "go", "typescript", "docker").
type Domain string

// FileChange is one touched file within a changeset.
type FileChange struct {
	// Path is the file path relative to the workspace root.
	Path string
}

// Changeset is the full set of files touched by a milestone's
// implementation, plus the unified diff. Binary and large-data artifacts are
// excluded at snapshot time; everything else - sources, tests, configs,
// docs - is included.
type Changeset struct {
	// Files are the touched files in porcelain order.
	Files []FileChange

	// Diff is the unified diff of tracked changes.
	Diff string
}

// IsEmpty reports whether the changeset touches no files.
func (c Changeset) IsEmpty() bool {
	return len(c.Files) == 0
}

// Paths returns the touched paths in order.
func (c Changeset) Paths() []string {
	paths := make([]string, len(c.Files))
	for i, f := range c.Files {
		paths[i] = f.Path
	}
	return paths
}

// Render formats the changeset for inclusion in a reviewer prompt: the file
// list followed by the diff.
func (c Changeset) Render() string {
	var b strings.Builder
	b.WriteString("Files:\n")
	for _, f := range c.Files {
		b.WriteString("  " + f.Path + "\n")
	}
	if c.Diff != "" {
		b.WriteString("Diff:\n")
		b.WriteString(c.Diff)
		if !strings.HasSuffix(c.Diff, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// binaryExtensions are artifact types excluded from changeset snapshots.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".jar": true,
	".so": true, ".dylib": true, ".dll": true, ".exe": true, ".bin": true,
	".woff": true, ".woff2": true, ".ttf": true,
}

// IsBinaryArtifact reports whether a path should be excluded from changeset
// snapshots as a binary or large-data artifact.
func IsBinaryArtifact(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

// Issue is a single reviewer finding.
type Issue struct {
	// Domain is the reviewer that raised the issue.
	Domain Domain

	// File is the offending path, when the reviewer named one.
	File string

	// Description is the finding text.
	Description string
}

// String renders the issue for operator output and fix prompts.
func (i Issue) String() string {
	if i.File != "" {
		return string(i.Domain) + ": " + i.File + ": " + i.Description
	}
	return string(i.Domain) + ": " + i.Description
}

// CheckResult is the outcome of the project-wide test/lint gate.
type CheckResult struct {
	// Passed is true only when every configured check command exited zero.
	Passed bool

	// Details holds the failing command and its output when Passed is false.
	Details string
}

// DecisionKind is the continuation analyst's verdict.
type DecisionKind string

const (
	// DecisionProceed means the next milestone is safe for unattended
	// execution.
	DecisionProceed DecisionKind = "PROCEED"

	// DecisionHalt means human input is required before continuing.
	DecisionHalt DecisionKind = "HALT"
)

// Decision is the continuation analyst's classification of the next
// milestone. Computed fresh each loop iteration, never cached.
type Decision struct {
	Kind DecisionKind

	// Questions are the specific open questions behind a HALT. Non-empty
	// whenever Kind is DecisionHalt; an empty list on HALT is a contract
	// violation.
	Questions []string
}

// VerifyResult is the outcome of independently verifying one acceptance
// criterion.
type VerifyResult struct {
	// Satisfied reports whether the verifier found independent evidence.
	Satisfied bool

	// Evidence is the verifier's evidence (or reason for dissatisfaction).
	Evidence string
}

// Implementer produces a changeset satisfying a milestone's acceptance
// criteria. The returned changeset is a snapshot of every file the
// implementation touched.
type Implementer interface {
	Implement(ctx context.Context, milestoneKey, title string, criteria []string) (Changeset, error)
}

// Checker runs the project's full test/lint suite. A milestone cannot
// complete while it leaves unrelated code broken, so checks cover the whole
// project, not only changed files.
type Checker interface {
	RunProjectChecks(ctx context.Context) (CheckResult, error)
}

// Reviewer reviews the complete changeset from one domain's perspective and
// returns its findings. An empty slice means approval.
type Reviewer interface {
	Review(ctx context.Context, domain Domain, changeset Changeset) ([]Issue, error)
}

// Verifier independently checks one acceptance criterion against the current
// code, without trusting the implementation step's self-report.
type Verifier interface {
	VerifyCriterion(ctx context.Context, milestoneKey, criterion string) (VerifyResult, error)
}

// Classifier decides whether the next milestone is safe for unattended
// execution.
type Classifier interface {
	ClassifyMilestone(ctx context.Context, milestoneText, phaseContext string) (Decision, error)
}

// Fixer applies fixes for reviewer findings to the working tree.
type Fixer interface {
	ApplyFixes(ctx context.Context, milestoneKey string, issues []Issue) error
}

// Snapshotter captures the current full changeset from the working tree.
// The review gate re-snapshots between rounds so fixes are always re-reviewed
// in full.
type Snapshotter interface {
	Snapshot(ctx context.Context) (Changeset, error)
}
