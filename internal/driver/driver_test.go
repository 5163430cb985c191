package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milepost/internal/engine"
	"milepost/internal/output"
	"milepost/internal/plan"
	"milepost/internal/resume"
)

const phaseOne = `# Phase 1

## P01M01: Bootstrap the service

Status: ⬜

- [ ] Service starts
- [ ] Health endpoint responds
`

// mockGate implements ConsensusGate.
type mockGate struct {
	Err   error
	Calls []string
}

func (m *mockGate) Run(ctx context.Context, milestoneKey string, changeset engine.Changeset) (engine.Changeset, error) {
	m.Calls = append(m.Calls, milestoneKey)
	return changeset, m.Err
}

// mockCommitter implements Committer.
type mockCommitter struct {
	Err      error
	Messages []string
}

func (m *mockCommitter) CommitAll(ctx context.Context, message string) error {
	m.Messages = append(m.Messages, message)
	return m.Err
}

type harness struct {
	driver      *Driver
	store       *plan.Store
	resume      *resume.Manager
	implementer *engine.MockImplementer
	checker     *engine.MockChecker
	verifier    *engine.MockVerifier
	snapshotter *engine.MockSnapshotter
	gate        *mockGate
	git         *mockCommitter
}

func newHarness(t *testing.T, phaseContent string) *harness {
	t.Helper()

	root := t.TempDir()
	planDir := filepath.Join(root, "plan")
	require.NoError(t, os.MkdirAll(planDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(planDir, "phase-01.md"), []byte(phaseContent), 0644))

	store := plan.NewStore(planDir)
	resumeMgr := resume.NewManager(filepath.Join(root, resume.DefaultStatePath))

	h := &harness{
		store:       store,
		resume:      resumeMgr,
		implementer: &engine.MockImplementer{},
		checker:     &engine.MockChecker{},
		verifier:    &engine.MockVerifier{},
		snapshotter: &engine.MockSnapshotter{Changesets: []engine.Changeset{{Files: []engine.FileChange{{Path: "svc.go"}}}}},
		gate:        &mockGate{},
		git:         &mockCommitter{},
	}
	h.driver = NewDriver(
		store,
		plan.NewLocator(store),
		resumeMgr,
		h.implementer,
		h.checker,
		h.verifier,
		h.snapshotter,
		h.gate,
		h.git,
		output.NewPrinterWithWriter(&bytes.Buffer{}),
	)
	return h
}

func key(phase, milestone int) plan.MilestoneKey {
	return plan.MilestoneKey{Phase: phase, Milestone: milestone}
}

func TestDriver_Execute_HappyPath(t *testing.T) {
	h := newHarness(t, phaseOne)
	k := key(1, 1)

	require.NoError(t, h.driver.Execute(context.Background(), k))

	// Implementation, checks, verification, review, commit all ran once.
	assert.Equal(t, []string{"P01M01"}, h.implementer.Calls)
	assert.Equal(t, 1, h.checker.Calls)
	assert.Equal(t, []string{"Service starts", "Health endpoint responds"}, h.verifier.Calls)
	assert.Equal(t, []string{"P01M01"}, h.gate.Calls)
	require.Len(t, h.git.Messages, 1)
	assert.Contains(t, h.git.Messages[0], "P01M01: Bootstrap the service")

	// Plan file: milestone Complete with all criteria checked.
	m, err := h.store.FindMilestone(k)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusComplete, m.Status)
	assert.True(t, m.AllCriteriaChecked())

	// Resume record flipped to complete.
	rec, err := h.resume.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, resume.StateComplete, rec.Status)
	assert.Equal(t, "P01M01", rec.MilestoneKey)
}

func TestDriver_Execute_RefusesClaimedMilestone(t *testing.T) {
	h := newHarness(t, phaseOne)
	k := key(1, 1)
	require.NoError(t, h.store.SetStatus(k, plan.StatusInProgress))

	err := h.driver.Execute(context.Background(), k)
	assert.ErrorIs(t, err, ErrMilestoneClaimed)
	assert.Empty(t, h.implementer.Calls)
}

func TestDriver_Execute_RefusesCompleteMilestone(t *testing.T) {
	h := newHarness(t, phaseOne)
	k := key(1, 1)
	require.NoError(t, h.store.SetStatus(k, plan.StatusComplete))

	err := h.driver.Execute(context.Background(), k)
	assert.ErrorIs(t, err, ErrMilestoneClaimed)
}

func TestDriver_Resume_AcceptsInProgress(t *testing.T) {
	h := newHarness(t, phaseOne)
	k := key(1, 1)
	require.NoError(t, h.store.SetStatus(k, plan.StatusInProgress))

	require.NoError(t, h.driver.Resume(context.Background(), k))

	m, err := h.store.FindMilestone(k)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusComplete, m.Status)
}

func TestDriver_Execute_ResumeRecordWrittenBeforeImplementation(t *testing.T) {
	h := newHarness(t, phaseOne)
	// Implementation fails; the record must already exist and stay in_progress.
	h.implementer.Err = errors.New("session crashed")

	err := h.driver.Execute(context.Background(), key(1, 1))
	require.Error(t, err)

	rec, err := h.resume.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, resume.StateInProgress, rec.Status)
	assert.Equal(t, "P01M01", rec.MilestoneKey)
}

func TestDriver_Execute_ChecksFailureHalts(t *testing.T) {
	h := newHarness(t, phaseOne)
	h.checker.Results = []engine.CheckResult{{Passed: false, Details: "go vet: unreachable code"}}

	err := h.driver.Execute(context.Background(), key(1, 1))
	assert.ErrorIs(t, err, engine.ErrChecksFailed)
	assert.Contains(t, err.Error(), "unreachable code")

	// Halted before verification, review, and commit.
	assert.Empty(t, h.verifier.Calls)
	assert.Empty(t, h.gate.Calls)
	assert.Empty(t, h.git.Messages)

	// Milestone stays InProgress for the resume flow.
	m, err := h.store.FindMilestone(key(1, 1))
	require.NoError(t, err)
	assert.Equal(t, plan.StatusInProgress, m.Status)
}

func TestDriver_Execute_UnverifiedCriterionHalts(t *testing.T) {
	h := newHarness(t, phaseOne)
	h.verifier.Results = map[string]engine.VerifyResult{
		"Health endpoint responds": {Satisfied: false, Evidence: "endpoint returns 404"},
	}

	err := h.driver.Execute(context.Background(), key(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "criterion 2")
	assert.Contains(t, err.Error(), "endpoint returns 404")
	assert.Empty(t, h.gate.Calls)
	assert.Empty(t, h.git.Messages)
}

func TestDriver_Execute_ReviewFailurePropagates(t *testing.T) {
	h := newHarness(t, phaseOne)
	h.gate.Err = errors.New("review escalated")

	err := h.driver.Execute(context.Background(), key(1, 1))
	require.Error(t, err)
	assert.Empty(t, h.git.Messages)

	m, err := h.store.FindMilestone(key(1, 1))
	require.NoError(t, err)
	assert.Equal(t, plan.StatusInProgress, m.Status)
}

func TestDriver_Execute_CommitFailureLeavesResumeInProgress(t *testing.T) {
	h := newHarness(t, phaseOne)
	h.git.Err = errors.New("nothing to commit")

	err := h.driver.Execute(context.Background(), key(1, 1))
	require.Error(t, err)

	rec, err := h.resume.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, resume.StateInProgress, rec.Status)
}

func TestDriver_RunNext_LocatesFirstMilestone(t *testing.T) {
	h := newHarness(t, phaseOne)

	k, err := h.driver.RunNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key(1, 1), k)
}

func TestDriver_RunNext_PlanComplete(t *testing.T) {
	complete := `# Phase 1

## P01M01: Bootstrap the service

Status: ✅

- [x] Service starts
`
	h := newHarness(t, complete)

	_, err := h.driver.RunNext(context.Background())
	assert.ErrorIs(t, err, plan.ErrPlanComplete)
}

func TestCommitMessage(t *testing.T) {
	msg := commitMessage(key(2, 3), "Wire migrations")
	assert.Equal(t, "P02M03: Wire migrations\n\nmilestone: P02M03", msg)
}
