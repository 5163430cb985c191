package config

import "path/filepath"

// Workspace pins down the paths the orchestrator operates on for one CLI
// invocation. It replaces ambient "current project" state: constructed once
// at startup, passed explicitly to every component constructor, read-only
// thereafter.
type Workspace struct {
	// Root is the workspace root directory (where git runs and checks
	// execute).
	Root string

	// PlanDir is the absolute path of the phase file directory.
	PlanDir string

	// ResumeStatePath is the absolute path of the resume record.
	ResumeStatePath string
}

// NewWorkspace resolves the configured relative paths against root.
func NewWorkspace(root string, cfg *Config) Workspace {
	return Workspace{
		Root:            root,
		PlanDir:         join(root, cfg.PlanDir),
		ResumeStatePath: join(root, cfg.ResumeStatePath),
	}
}

func join(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
