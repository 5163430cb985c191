// Package cli wires the orchestrator's dependencies and exposes the command
// surface: next, auto, resume, status, raw.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"milepost/internal/analyst"
	"milepost/internal/claude"
	"milepost/internal/config"
	"milepost/internal/driver"
	"milepost/internal/engine"
	"milepost/internal/gitcmd"
	"milepost/internal/output"
	"milepost/internal/plan"
	"milepost/internal/report"
	"milepost/internal/resume"
	"milepost/internal/review"
)

// Runner executes milestones. Implemented by [driver.Driver]; mocked in
// tests.
type Runner interface {
	Execute(ctx context.Context, key plan.MilestoneKey) error
	Resume(ctx context.Context, key plan.MilestoneKey) error
}

// Locator selects the next eligible milestone. Implemented by
// [plan.Locator].
type Locator interface {
	Next() (plan.MilestoneKey, error)
}

// Analyst classifies the next milestone for unattended execution.
// Implemented by [analyst.Gate].
type Analyst interface {
	Classify(ctx context.Context, milestone plan.Milestone, phase plan.Phase) (engine.Decision, error)
}

// App carries the dependencies every command needs. Constructed once per CLI
// invocation; commands receive it rather than reaching for globals.
type App struct {
	Config    *config.Config
	Workspace config.Workspace
	Printer   *output.Printer

	Store    *plan.Store
	Locator  Locator
	Resume   *resume.Manager
	Runner   Runner
	Analyst  Analyst
	Reporter *report.Reporter
	Executor claude.Executor

	// Stdin is the interactive input source for the resume prompt.
	Stdin io.Reader
}

// NewApp builds the production dependency graph for the given workspace.
func NewApp(cfg *config.Config, ws config.Workspace, printer *output.Printer) (*App, error) {
	executor := claude.NewCLIExecutor(cfg.Claude.BinaryPath)
	eng := engine.NewClaudeEngine(executor, cfg, printer)

	store := plan.NewStore(ws.PlanDir)
	locator := plan.NewLocator(store)
	resumeMgr := resume.NewManager(ws.ResumeStatePath)

	git := gitcmd.New(ws.Root)
	snapshotter := engine.NewGitSnapshotter(git)
	checker := engine.NewExecChecker(ws.Root, cfg)

	registry := review.NewRegistry(eng)
	if cfg.Review.ManifestPath != "" {
		manifestPath := cfg.Review.ManifestPath
		if !filepath.IsAbs(manifestPath) {
			manifestPath = filepath.Join(ws.Root, manifestPath)
		}
		if err := registry.LoadManifest(manifestPath, eng); err != nil {
			return nil, fmt.Errorf("failed to load reviewer manifest: %w", err)
		}
	}
	gate := review.NewGate(registry, snapshotter, eng, printer, cfg.Review.MaxRounds)

	drv := driver.NewDriver(store, locator, resumeMgr, eng, checker, eng, snapshotter, gate, git, printer)

	return &App{
		Config:    cfg,
		Workspace: ws,
		Printer:   printer,
		Store:     store,
		Locator:   locator,
		Resume:    resumeMgr,
		Runner:    drv,
		Analyst:   analyst.NewGate(eng),
		Reporter:  report.NewReporter(store),
		Executor:  executor,
		Stdin:     os.Stdin,
	}, nil
}

// checkNoInterruptedRun refuses to start new work while an in_progress
// resume record exists. There is no silent auto-resume: the operator decides
// through the resume command.
func (a *App) checkNoInterruptedRun() error {
	rec, err := a.Resume.Load()
	if err != nil {
		// A malformed record was cleared on load; report and continue.
		a.Printer.Warn("%v", err)
		return nil
	}
	if rec != nil && rec.Status == resume.StateInProgress {
		return fmt.Errorf("interrupted run found for %s (started %s); run 'milepost resume' first",
			rec.MilestoneKey, rec.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
