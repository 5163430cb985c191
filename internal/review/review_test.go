package review

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milepost/internal/engine"
	"milepost/internal/output"
)

func changesetOf(paths ...string) engine.Changeset {
	var cs engine.Changeset
	for _, p := range paths {
		cs.Files = append(cs.Files, engine.FileChange{Path: p})
	}
	return cs
}

func TestRegistry_DetectDomains(t *testing.T) {
	registry := NewRegistry(&engine.MockReviewer{})

	tests := []struct {
		name  string
		paths []string
		want  []engine.Domain
	}{
		{
			name:  "go and docker",
			paths: []string{"a.go", "b_test.go", "Dockerfile"},
			want:  []engine.Domain{DomainDocker, DomainGo},
		},
		{
			name:  "typescript variants",
			paths: []string{"src/app.ts", "src/view.tsx"},
			want:  []engine.Domain{DomainTypeScript},
		},
		{
			name:  "compose file",
			paths: []string{"deploy/docker-compose.prod.yaml"},
			want:  []engine.Domain{DomainDocker},
		},
		{
			name:  "no domains",
			paths: []string{"README.md", "notes.txt"},
			want:  nil,
		},
		{
			name:  "python and csharp",
			paths: []string{"tool.py", "App.cs"},
			want:  []engine.Domain{DomainCSharp, DomainPython},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := registry.DetectDomains(changesetOf(tt.paths...))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_LoadManifest(t *testing.T) {
	registry := NewRegistry(&engine.MockReviewer{})
	path := filepath.Join(t.TempDir(), "reviewers.csv")
	content := "domain,pattern\nterraform,*.tf\ndocker,Containerfile\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	require.NoError(t, registry.LoadManifest(path, &engine.MockReviewer{}))

	domains := registry.DetectDomains(changesetOf("infra/main.tf", "Containerfile"))
	assert.Equal(t, []engine.Domain{DomainDocker, engine.Domain("terraform")}, domains)
}

func TestRegistry_LoadManifest_BadHeader(t *testing.T) {
	registry := NewRegistry(&engine.MockReviewer{})
	path := filepath.Join(t.TempDir(), "reviewers.csv")
	require.NoError(t, os.WriteFile(path, []byte("nope,nope\n"), 0644))

	assert.Error(t, registry.LoadManifest(path, &engine.MockReviewer{}))
}

func newTestGate(reviewer engine.Reviewer, snapshotter engine.Snapshotter, fixer engine.Fixer, maxRounds int) *Gate {
	registry := NewRegistry(reviewer)
	printer := output.NewPrinterWithWriter(&bytes.Buffer{})
	return NewGate(registry, snapshotter, fixer, printer, maxRounds)
}

func TestGate_Run_UnanimousFirstRound(t *testing.T) {
	reviewer := &engine.MockReviewer{}
	fixer := &engine.MockFixer{}
	gate := newTestGate(reviewer, &engine.MockSnapshotter{}, fixer, 10)

	cs := changesetOf("a.go", "b_test.go", "Dockerfile")
	approved, err := gate.Run(context.Background(), "P01M01", cs)
	require.NoError(t, err)
	assert.Equal(t, cs, approved)

	// Both detected domains were consulted, no fixes applied.
	assert.Len(t, reviewer.Calls, 2)
	assert.Empty(t, fixer.Calls)
}

func TestGate_Run_FullChangesetInvariant(t *testing.T) {
	reviewer := &engine.MockReviewer{}
	gate := newTestGate(reviewer, &engine.MockSnapshotter{}, &engine.MockFixer{}, 10)

	cs := changesetOf("a.go", "b_test.go", "Dockerfile", "README.md")
	_, err := gate.Run(context.Background(), "P01M01", cs)
	require.NoError(t, err)

	// Every reviewer call received every file from the original changeset,
	// not a per-domain subset.
	require.Len(t, reviewer.Calls, 2)
	for _, call := range reviewer.Calls {
		assert.Equal(t, cs.Paths(), call.Changeset.Paths(), "domain %s saw a filtered changeset", call.Domain)
	}
}

func TestGate_Run_RetryUntilUnanimous(t *testing.T) {
	// go rejects in round 1, approves in round 2; docker approves both
	// rounds. Two full rounds are required.
	reviewer := &engine.MockReviewer{
		IssuesByDomain: map[engine.Domain][][]engine.Issue{
			DomainGo: {
				{{Domain: DomainGo, File: "a.go", Description: "shadowed err"}},
			},
		},
	}
	fixer := &engine.MockFixer{}
	snapshotter := &engine.MockSnapshotter{
		Changesets: []engine.Changeset{changesetOf("a.go", "Dockerfile")},
	}
	gate := newTestGate(reviewer, snapshotter, fixer, 10)

	_, err := gate.Run(context.Background(), "P01M01", changesetOf("a.go", "Dockerfile"))
	require.NoError(t, err)

	// Two rounds, two domains each: four reviewer calls.
	assert.Len(t, reviewer.Calls, 4)
	// One fix pass carrying the go issue.
	require.Len(t, fixer.Calls, 1)
	require.Len(t, fixer.Calls[0], 1)
	assert.Equal(t, "a.go", fixer.Calls[0][0].File)
	// The second round ran on a fresh snapshot.
	assert.Equal(t, 1, snapshotter.Calls)
}

func TestGate_Run_RestartsFromDetection(t *testing.T) {
	// After the fix, the snapshot gains a Dockerfile; round 2 must detect
	// and consult the docker domain even though round 1 never saw it.
	reviewer := &engine.MockReviewer{
		IssuesByDomain: map[engine.Domain][][]engine.Issue{
			DomainGo: {
				{{Domain: DomainGo, Description: "missing healthcheck wiring"}},
			},
		},
	}
	snapshotter := &engine.MockSnapshotter{
		Changesets: []engine.Changeset{changesetOf("a.go", "Dockerfile")},
	}
	gate := newTestGate(reviewer, snapshotter, &engine.MockFixer{}, 10)

	_, err := gate.Run(context.Background(), "P01M01", changesetOf("a.go"))
	require.NoError(t, err)

	var dockerSeen bool
	for _, call := range reviewer.Calls {
		if call.Domain == DomainDocker {
			dockerSeen = true
		}
	}
	assert.True(t, dockerSeen, "fix introduced a docker file but docker was never re-detected")
}

func TestGate_Run_ZeroDomainsSkipsReview(t *testing.T) {
	reviewer := &engine.MockReviewer{}
	gate := newTestGate(reviewer, &engine.MockSnapshotter{}, &engine.MockFixer{}, 10)

	cs := changesetOf("README.md")
	approved, err := gate.Run(context.Background(), "P01M01", cs)
	require.NoError(t, err)
	assert.Equal(t, cs, approved)
	assert.Empty(t, reviewer.Calls)
}

func TestGate_Run_Escalates(t *testing.T) {
	// go never approves.
	reviewer := &engine.MockReviewer{
		IssuesByDomain: map[engine.Domain][][]engine.Issue{
			DomainGo: {
				{{Domain: DomainGo, Description: "still broken"}},
				{{Domain: DomainGo, Description: "still broken"}},
				{{Domain: DomainGo, Description: "still broken"}},
			},
		},
	}
	snapshotter := &engine.MockSnapshotter{Changesets: []engine.Changeset{changesetOf("a.go")}}
	gate := newTestGate(reviewer, snapshotter, &engine.MockFixer{}, 3)

	_, err := gate.Run(context.Background(), "P01M01", changesetOf("a.go"))
	assert.ErrorIs(t, err, ErrEscalated)
	// The escalation carries the rejection it grew out of.
	assert.ErrorIs(t, err, ErrReviewRejected)
	assert.Len(t, reviewer.Calls, 3)
}

func TestGate_Run_ReviewerError(t *testing.T) {
	reviewer := &engine.MockReviewer{Err: assert.AnError}
	gate := newTestGate(reviewer, &engine.MockSnapshotter{}, &engine.MockFixer{}, 10)

	_, err := gate.Run(context.Background(), "P01M01", changesetOf("a.go"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "reviewer failed"))
}

func TestRound_Aggregation(t *testing.T) {
	round := Round{
		Findings: map[engine.Domain][]engine.Issue{
			DomainGo:     {},
			DomainDocker: {},
		},
	}
	assert.True(t, round.Approved())

	round.Findings[DomainGo] = []engine.Issue{{Domain: DomainGo, Description: "x"}}
	assert.False(t, round.Approved())
	assert.Len(t, round.AllIssues(), 1)
}
