package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"milepost/internal/claude"
	"milepost/internal/config"
	"milepost/internal/engine"
	"milepost/internal/output"
	"milepost/internal/plan"
	"milepost/internal/report"
	"milepost/internal/resume"
)

// mockRunner implements Runner. When store is set, Execute marks the
// milestone Complete so the locator advances, mimicking the real driver's
// plan mutation.
type mockRunner struct {
	store *plan.Store

	ExecuteErr error
	ResumeErr  error

	Executed []plan.MilestoneKey
	Resumed  []plan.MilestoneKey
}

func (m *mockRunner) Execute(ctx context.Context, key plan.MilestoneKey) error {
	m.Executed = append(m.Executed, key)
	if m.ExecuteErr != nil {
		return m.ExecuteErr
	}
	if m.store != nil {
		if err := m.store.MarkCriteriaComplete(key); err != nil {
			return err
		}
		return m.store.SetStatus(key, plan.StatusComplete)
	}
	return nil
}

func (m *mockRunner) Resume(ctx context.Context, key plan.MilestoneKey) error {
	m.Resumed = append(m.Resumed, key)
	return m.ResumeErr
}

// mockAnalyst implements Analyst with per-call scripted decisions; the last
// repeats when exhausted.
type mockAnalyst struct {
	Decisions []engine.Decision
	Err       error
	Calls     int
}

func (m *mockAnalyst) Classify(ctx context.Context, milestone plan.Milestone, phase plan.Phase) (engine.Decision, error) {
	idx := m.Calls
	m.Calls++
	if m.Err != nil {
		return engine.Decision{Kind: engine.DecisionHalt, Questions: []string{"analyst failed"}}, m.Err
	}
	if len(m.Decisions) == 0 {
		return engine.Decision{Kind: engine.DecisionProceed}, nil
	}
	if idx >= len(m.Decisions) {
		idx = len(m.Decisions) - 1
	}
	return m.Decisions[idx], nil
}

// testApp bundles an App wired against a temp workspace with mocks in place
// of the driver, analyst, and executor.
type testApp struct {
	app      *App
	out      *bytes.Buffer
	runner   *mockRunner
	analyst  *mockAnalyst
	executor *claude.MockExecutor
	resume   *resume.Manager
	store    *plan.Store
}

// newTestApp builds a test workspace with the given phase files
// (name -> content).
func newTestApp(t *testing.T, phaseFiles map[string]string) *testApp {
	t.Helper()

	root := t.TempDir()
	planDir := filepath.Join(root, "plan")
	require.NoError(t, os.MkdirAll(planDir, 0755))
	for name, content := range phaseFiles {
		require.NoError(t, os.WriteFile(filepath.Join(planDir, name), []byte(content), 0644))
	}

	cfg := config.DefaultConfig()
	ws := config.NewWorkspace(root, cfg)

	out := &bytes.Buffer{}
	store := plan.NewStore(ws.PlanDir)
	resumeMgr := resume.NewManager(ws.ResumeStatePath)
	runner := &mockRunner{store: store}
	an := &mockAnalyst{}
	executor := &claude.MockExecutor{}

	app := &App{
		Config:    cfg,
		Workspace: ws,
		Printer:   output.NewPrinterWithWriter(out),
		Store:     store,
		Locator:   plan.NewLocator(store),
		Resume:    resumeMgr,
		Runner:    runner,
		Analyst:   an,
		Reporter:  report.NewReporter(store),
		Executor:  executor,
		Stdin:     strings.NewReader(""),
	}

	return &testApp{
		app:      app,
		out:      out,
		runner:   runner,
		analyst:  an,
		executor: executor,
		resume:   resumeMgr,
		store:    store,
	}
}

func (ta *testApp) run(t *testing.T, args ...string) ExecuteResult {
	t.Helper()
	return Run(context.Background(), ta.app, args)
}
