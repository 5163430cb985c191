// Package gitcmd wraps the handful of git subprocess invocations the
// orchestrator needs: snapshotting the working tree's changes and creating
// the per-milestone commit.
package gitcmd

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Git runs git commands in a fixed repository root.
type Git struct {
	root string
}

// New creates a [Git] bound to the given repository root.
func New(root string) *Git {
	return &Git{root: root}
}

// run executes git with args in the repository root and returns stdout.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.root

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// ChangedFiles lists every path with uncommitted changes (staged, unstaged,
// and untracked), in porcelain order.
func (g *Git) ChangedFiles(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		// Renames are listed as "old -> new"; the new path is the live one.
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		paths = append(paths, strings.Trim(path, `"`))
	}
	return paths, nil
}

// Diff returns the unified diff of tracked changes against HEAD. Untracked
// files do not appear here; the changeset snapshotter reads their content
// directly from disk.
func (g *Git) Diff(ctx context.Context) (string, error) {
	return g.run(ctx, "diff", "HEAD")
}

// CommitAll stages every change in the repository and creates a single
// commit with the given message. The plan file mutation and the
// implementation changeset land atomically in one commit.
func (g *Git) CommitAll(ctx context.Context, message string) error {
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return err
	}
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return err
	}
	return nil
}
