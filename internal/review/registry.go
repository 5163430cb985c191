// Package review implements the reviewer consensus gate: detect the domains
// a changeset touches, fan review out to every domain's reviewer
// concurrently, and require unanimous approval before a milestone may
// commit, with a bounded fix-and-re-review loop.
package review

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"milepost/internal/engine"
)

// Builtin domains.
const (
	DomainGo         engine.Domain = "go"
	DomainTypeScript engine.Domain = "typescript"
	DomainPython     engine.Domain = "python"
	DomainCSharp     engine.Domain = "csharp"
	DomainDocker     engine.Domain = "docker"
)

// Rule maps a path pattern to a reviewer domain. Pattern is a glob matched
// against the file's base name (e.g. "*.go", "Dockerfile",
// "docker-compose.*").
type Rule struct {
	Pattern string
	Domain  engine.Domain
}

// Matches reports whether the rule applies to the given path.
func (r Rule) Matches(path string) bool {
	ok, err := filepath.Match(r.Pattern, filepath.Base(path))
	return err == nil && ok
}

// defaultRules are the built-in path-to-domain mappings.
func defaultRules() []Rule {
	return []Rule{
		{Pattern: "*.go", Domain: DomainGo},
		{Pattern: "*.ts", Domain: DomainTypeScript},
		{Pattern: "*.tsx", Domain: DomainTypeScript},
		{Pattern: "*.py", Domain: DomainPython},
		{Pattern: "*.cs", Domain: DomainCSharp},
		{Pattern: "Dockerfile", Domain: DomainDocker},
		{Pattern: "docker-compose.*", Domain: DomainDocker},
	}
}

// Registry maps domains to their reviewers and holds the detection rules.
//
// Adding a domain is a registry entry, not a control-flow branch: register a
// rule and a reviewer and the gate picks it up. The registry is populated at
// startup and read-only afterwards.
type Registry struct {
	rules     []Rule
	reviewers map[engine.Domain]engine.Reviewer
}

// NewRegistry creates a [Registry] with the built-in rules, all routed to
// the given reviewer.
func NewRegistry(reviewer engine.Reviewer) *Registry {
	r := &Registry{
		reviewers: make(map[engine.Domain]engine.Reviewer),
	}
	for _, rule := range defaultRules() {
		r.Register(rule, reviewer)
	}
	return r
}

// Register adds a detection rule and its reviewer. Re-registering a domain
// replaces its reviewer.
func (r *Registry) Register(rule Rule, reviewer engine.Reviewer) {
	r.rules = append(r.rules, rule)
	r.reviewers[rule.Domain] = reviewer
}

// Reviewer returns the reviewer registered for a domain.
func (r *Registry) Reviewer(domain engine.Domain) (engine.Reviewer, bool) {
	rev, ok := r.reviewers[domain]
	return rev, ok
}

// DetectDomains derives the set of reviewer domains implicated by a
// changeset, purely from the touched paths. The result is sorted for
// deterministic fan-out order. A changeset may map to zero, one, or many
// domains.
func (r *Registry) DetectDomains(changeset engine.Changeset) []engine.Domain {
	seen := make(map[engine.Domain]bool)
	var domains []engine.Domain

	for _, f := range changeset.Files {
		for _, rule := range r.rules {
			if seen[rule.Domain] || !rule.Matches(f.Path) {
				continue
			}
			seen[rule.Domain] = true
			domains = append(domains, rule.Domain)
		}
	}

	sortDomains(domains)
	return domains
}

func sortDomains(domains []engine.Domain) {
	for i := 1; i < len(domains); i++ {
		for j := i; j > 0 && domains[j] < domains[j-1]; j-- {
			domains[j], domains[j-1] = domains[j-1], domains[j]
		}
	}
}

// LoadManifest reads additional rules from a reviewers CSV and registers
// them against the given reviewer.
//
// CSV format (header required):
//
//	domain,pattern
//	terraform,*.tf
//	docker,Containerfile
func (r *Registry) LoadManifest(path string, reviewer engine.Reviewer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open reviewer manifest: %w", err)
	}
	defer f.Close()

	return r.loadManifestFrom(f, reviewer)
}

func (r *Registry) loadManifestFrom(reader io.Reader, reviewer engine.Reviewer) error {
	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("failed to read reviewer manifest header: %w", err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "domain" || strings.TrimSpace(header[1]) != "pattern" {
		return fmt.Errorf("reviewer manifest must start with header \"domain,pattern\", got %v", header)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read reviewer manifest: %w", err)
		}
		if len(record) < 2 {
			continue
		}

		domain := engine.Domain(strings.TrimSpace(record[0]))
		pattern := strings.TrimSpace(record[1])
		if domain == "" || pattern == "" {
			continue
		}
		r.Register(Rule{Pattern: pattern, Domain: domain}, reviewer)
	}
}
