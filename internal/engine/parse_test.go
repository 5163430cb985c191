package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewFindings(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []Issue
		wantErr bool
	}{
		{
			name: "approved",
			text: "APPROVED",
			want: nil,
		},
		{
			name: "approved with chatter",
			text: "I reviewed everything carefully.\n\napproved",
			want: nil,
		},
		{
			name: "single issue with file",
			text: "ISSUE: main.go: unused variable x",
			want: []Issue{{Domain: "go", File: "main.go", Description: "unused variable x"}},
		},
		{
			name: "issue without file",
			text: "ISSUE: the error handling swallows context cancellation",
			want: []Issue{{Domain: "go", Description: "the error handling swallows context cancellation"}},
		},
		{
			name: "multiple issues",
			text: "Here is my review:\nISSUE: a.go: one\nISSUE: b.go: two\n",
			want: []Issue{
				{Domain: "go", File: "a.go", Description: "one"},
				{Domain: "go", File: "b.go", Description: "two"},
			},
		},
		{
			name:    "neither approval nor issues",
			text:    "Looks fine I guess",
			wantErr: true,
		},
		{
			name:    "empty response",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReviewFindings("go", tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVerifyResult(t *testing.T) {
	r, err := ParseVerifyResult("SATISFIED: test TestFoo covers the retry path")
	require.NoError(t, err)
	assert.True(t, r.Satisfied)
	assert.Equal(t, "test TestFoo covers the retry path", r.Evidence)

	r, err = ParseVerifyResult("Some preamble.\nUNSATISFIED: no test exercises the error branch")
	require.NoError(t, err)
	assert.False(t, r.Satisfied)
	assert.Contains(t, r.Evidence, "error branch")

	_, err = ParseVerifyResult("maybe?")
	assert.Error(t, err)
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("DECISION: PROCEED")
	require.NoError(t, err)
	assert.Equal(t, DecisionProceed, d.Kind)
	assert.Empty(t, d.Questions)

	d, err = ParseDecision("DECISION: HALT\nQUESTION: Which auth scheme?\nQUESTION: Is the API versioned?")
	require.NoError(t, err)
	assert.Equal(t, DecisionHalt, d.Kind)
	assert.Equal(t, []string{"Which auth scheme?", "Is the API versioned?"}, d.Questions)
}

func TestParseDecision_CaseInsensitiveVerdict(t *testing.T) {
	d, err := ParseDecision("DECISION: proceed")
	require.NoError(t, err)
	assert.Equal(t, DecisionProceed, d.Kind)
}

func TestParseDecision_NoVerdictResolvesToHalt(t *testing.T) {
	// Ties and garbage resolve to HALT, never PROCEED.
	d, err := ParseDecision("I think it should be fine.")
	require.NoError(t, err)
	assert.Equal(t, DecisionHalt, d.Kind)
	assert.NotEmpty(t, d.Questions)
}

func TestParseDecision_HaltWithoutQuestionsIsViolation(t *testing.T) {
	_, err := ParseDecision("DECISION: HALT")
	assert.Error(t, err)
}

func TestChangeset_Render(t *testing.T) {
	cs := Changeset{
		Files: []FileChange{{Path: "a.go"}, {Path: "Dockerfile"}},
		Diff:  "diff --git a/a.go b/a.go",
	}
	rendered := cs.Render()
	assert.Contains(t, rendered, "a.go")
	assert.Contains(t, rendered, "Dockerfile")
	assert.Contains(t, rendered, "diff --git")
}

func TestIsBinaryArtifact(t *testing.T) {
	assert.True(t, IsBinaryArtifact("assets/logo.PNG"))
	assert.True(t, IsBinaryArtifact("dist/tool.exe"))
	assert.False(t, IsBinaryArtifact("main.go"))
	assert.False(t, IsBinaryArtifact("Dockerfile"))
}
