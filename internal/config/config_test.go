package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "plan", cfg.PlanDir)
	assert.Equal(t, ".milepost/resume-state.yaml", cfg.ResumeStatePath)
	assert.Equal(t, 10, cfg.Review.MaxRounds)
	assert.Equal(t, "claude", cfg.Claude.BinaryPath)
	assert.NotEmpty(t, cfg.Checks.Commands)

	for _, name := range []string{PromptImplement, PromptVerify, PromptReview, PromptClassify, PromptFix} {
		pc, ok := cfg.Prompts[name]
		require.True(t, ok, "missing default prompt %q", name)
		assert.NotEmpty(t, pc.Template, "empty template for %q", name)
	}
}

func TestLoader_Load_Defaults(t *testing.T) {
	// Point config discovery at an empty directory so no real user config
	// leaks into the test.
	t.Setenv(EnvConfigPath, "")
	chdir(t, t.TempDir())

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().PlanDir, cfg.PlanDir)
	assert.Equal(t, DefaultConfig().Review.MaxRounds, cfg.Review.MaxRounds)
}

func TestLoader_Load_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "milepost.yaml")
	content := `
plan_dir: roadmap
review:
  max_rounds: 3
prompts:
  review:
    model: opus
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv(EnvConfigPath, path)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "roadmap", cfg.PlanDir)
	assert.Equal(t, 3, cfg.Review.MaxRounds)

	// Unset values keep their defaults.
	assert.Equal(t, "claude", cfg.Claude.BinaryPath)

	// A prompt override of just the model keeps the default template.
	review := cfg.Prompts[PromptReview]
	assert.Equal(t, "opus", review.Model)
	assert.NotEmpty(t, review.Template)

	// Prompts the file never mentions survive intact.
	assert.NotEmpty(t, cfg.Prompts[PromptImplement].Template)
}

func TestLoader_Load_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	chdir(t, t.TempDir())
	t.Setenv("MILEPOST_PLAN_DIR", "env-plan")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "env-plan", cfg.PlanDir)
}

func TestLoader_Load_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "milepost.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plan_dir: [broken"), 0644))
	t.Setenv(EnvConfigPath, path)

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestNewWorkspace(t *testing.T) {
	cfg := DefaultConfig()
	ws := NewWorkspace("/work/project", cfg)

	assert.Equal(t, "/work/project", ws.Root)
	assert.Equal(t, filepath.Join("/work/project", "plan"), ws.PlanDir)
	assert.Equal(t, filepath.Join("/work/project", ".milepost", "resume-state.yaml"), ws.ResumeStatePath)
}

func TestNewWorkspace_AbsolutePathsKept(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlanDir = "/elsewhere/plan"
	ws := NewWorkspace("/work/project", cfg)

	assert.Equal(t, "/elsewhere/plan", ws.PlanDir)
}
