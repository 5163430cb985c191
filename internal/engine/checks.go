package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"milepost/internal/config"
)

// ErrChecksFailed indicates the project-wide test/lint gate failed. It
// blocks the commit and must be fixed before retry; it is never bypassable.
var ErrChecksFailed = errors.New("project checks failed")

// ExecChecker implements [Checker] by running the configured check commands
// as shell subprocesses in the workspace root.
type ExecChecker struct {
	root     string
	commands []string
}

// NewExecChecker creates an [ExecChecker] for the workspace root using the
// configured commands.
func NewExecChecker(root string, cfg *config.Config) *ExecChecker {
	return &ExecChecker{
		root:     root,
		commands: cfg.Checks.Commands,
	}
}

// RunProjectChecks runs every configured command in order and fails on the
// first non-zero exit. The result's Details carries the failing command and
// its output.
func (c *ExecChecker) RunProjectChecks(ctx context.Context) (CheckResult, error) {
	for _, command := range c.commands {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = c.root

		out, err := cmd.CombinedOutput()
		if err != nil {
			return CheckResult{
				Passed:  false,
				Details: fmt.Sprintf("%s: %v\n%s", command, err, strings.TrimSpace(string(out))),
			}, nil
		}
	}
	return CheckResult{Passed: true}, nil
}

// GitSnapshotter implements [Snapshotter] over a git working tree.
type GitSnapshotter struct {
	git ChangeLister
}

// ChangeLister is the slice of gitcmd the snapshotter needs.
type ChangeLister interface {
	ChangedFiles(ctx context.Context) ([]string, error)
	Diff(ctx context.Context) (string, error)
}

// NewGitSnapshotter creates a [GitSnapshotter] over the given git helper.
func NewGitSnapshotter(git ChangeLister) *GitSnapshotter {
	return &GitSnapshotter{git: git}
}

// Snapshot captures the current full changeset: every uncommitted path minus
// binary artifacts, plus the tracked diff.
func (s *GitSnapshotter) Snapshot(ctx context.Context) (Changeset, error) {
	paths, err := s.git.ChangedFiles(ctx)
	if err != nil {
		return Changeset{}, err
	}

	var cs Changeset
	for _, p := range paths {
		if IsBinaryArtifact(p) {
			continue
		}
		cs.Files = append(cs.Files, FileChange{Path: p})
	}

	diff, err := s.git.Diff(ctx)
	if err != nil {
		return Changeset{}, err
	}
	cs.Diff = diff

	return cs, nil
}
