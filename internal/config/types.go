// Package config provides configuration loading and management for milepost.
//
// Configuration is loaded with Viper, supporting a YAML config file and
// environment variable overrides. The defaults work out of the box; a config
// file only needs to override what differs.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (MILEPOST_ prefix)
//  2. Config file named by MILEPOST_CONFIG_PATH
//  3. User config directory (e.g. ~/.config/milepost/milepost.yaml)
//  4. ./milepost.yaml
//  5. [DefaultConfig] defaults
package config

// Config is the root configuration container.
type Config struct {
	// PlanDir is the directory holding the phase files, relative to the
	// workspace root.
	PlanDir string `mapstructure:"plan_dir"`

	// ResumeStatePath is the resume record location, relative to the
	// workspace root.
	ResumeStatePath string `mapstructure:"resume_state_path"`

	// Prompts maps capability names (implement, verify, review, classify,
	// fix) to their prompt configurations.
	Prompts map[string]PromptConfig `mapstructure:"prompts"`

	// Review configures the reviewer consensus gate.
	Review ReviewConfig `mapstructure:"review"`

	// Checks configures the project-wide test/lint gate.
	Checks ChecksConfig `mapstructure:"checks"`

	// Claude configures the Claude CLI transport.
	Claude ClaudeConfig `mapstructure:"claude"`

	// Output configures terminal output formatting.
	Output OutputConfig `mapstructure:"output"`
}

// PromptConfig holds one capability's prompt template.
type PromptConfig struct {
	// Template is a Go text/template expanded with [PromptData].
	Template string `mapstructure:"template"`

	// Model overrides the default Claude model for this capability.
	// Examples: "opus", "sonnet", "haiku".
	Model string `mapstructure:"model"`
}

// ReviewConfig configures the reviewer consensus gate.
type ReviewConfig struct {
	// MaxRounds bounds the fix-and-re-review loop. Exceeding it escalates
	// to the operator instead of looping forever. Default: 10.
	MaxRounds int `mapstructure:"max_rounds"`

	// ManifestPath optionally names a reviewers.csv adding custom
	// path-pattern-to-domain rules at startup.
	ManifestPath string `mapstructure:"manifest_path"`
}

// ChecksConfig configures the project check gate run after implementation.
type ChecksConfig struct {
	// Commands are shell commands run in the workspace root. Every command
	// must exit zero for the milestone to proceed.
	Commands []string `mapstructure:"commands"`
}

// ClaudeConfig contains Claude CLI settings.
type ClaudeConfig struct {
	// BinaryPath is the Claude CLI binary. Default "claude" (on PATH).
	// Overridable with MILEPOST_CLAUDE_BINARY_PATH.
	BinaryPath string `mapstructure:"binary_path"`

	// Model is the default model for all capabilities without their own.
	Model string `mapstructure:"model"`
}

// OutputConfig contains terminal output formatting settings.
type OutputConfig struct {
	// TruncateLines caps the lines shown per streamed tool result.
	TruncateLines int `mapstructure:"truncate_lines"`

	// TruncateLength caps the length of a rendered line.
	TruncateLength int `mapstructure:"truncate_length"`
}

// Capability names used as keys into Config.Prompts.
const (
	PromptImplement = "implement"
	PromptVerify    = "verify"
	PromptReview    = "review"
	PromptClassify  = "classify"
	PromptFix       = "fix"
)

// DefaultConfig returns a [Config] with working defaults for every setting.
func DefaultConfig() *Config {
	return &Config{
		PlanDir:         "plan",
		ResumeStatePath: ".milepost/resume-state.yaml",
		Prompts: map[string]PromptConfig{
			PromptImplement: {
				Template: "Implement milestone {{.MilestoneKey}}: {{.Title}}. " +
					"Satisfy every acceptance criterion:\n{{.CriteriaList}}\n" +
					"Work only on this milestone. Run the project's tests as you go. " +
					"Do not ask questions.",
			},
			PromptVerify: {
				Template: "Verify this acceptance criterion of milestone {{.MilestoneKey}} " +
					"against the current code, independently of any prior claims: " +
					"\"{{.Criterion}}\". Inspect the code and tests yourself. " +
					"Reply with exactly one line: SATISFIED: <evidence> or UNSATISFIED: <reason>.",
			},
			PromptReview: {
				Template: "You are the {{.Domain}} reviewer. Review the full changeset below " +
					"for correctness, style, and regressions in your domain.\n{{.Changeset}}\n" +
					"Report each problem on its own line as ISSUE: <file>: <description>. " +
					"If there are no problems, reply with exactly APPROVED.",
			},
			PromptClassify: {
				Template: "Decide whether the next milestone is safe to execute unattended.\n" +
					"Milestone:\n{{.MilestoneText}}\n{{if .PhaseContext}}Phase context:\n{{.PhaseContext}}\n{{end}}" +
					"HALT when requirements are ambiguous, an architectural or security " +
					"decision is required, the work may already be done, or criteria are " +
					"incomplete or contradictory. When in doubt, HALT.\n" +
					"Reply with DECISION: PROCEED or DECISION: HALT, and on HALT add one " +
					"QUESTION: <text> line per open question.",
			},
			PromptFix: {
				Template: "Reviewers rejected the changeset for milestone {{.MilestoneKey}}. " +
					"Fix every issue listed below, then re-run the affected tests. " +
					"Do not ask questions.\n{{.Issues}}",
			},
		},
		Review: ReviewConfig{
			MaxRounds: 10,
		},
		Checks: ChecksConfig{
			Commands: []string{"go build ./...", "go test ./..."},
		},
		Claude: ClaudeConfig{
			BinaryPath: "claude",
		},
		Output: OutputConfig{
			TruncateLines:  20,
			TruncateLength: 60,
		},
	}
}

// PromptData is the data passed to prompt template expansion.
//
// Fields are accessible in templates as {{.FieldName}}; each capability uses
// the subset that applies to it.
type PromptData struct {
	// MilestoneKey is the rendered key token, e.g. "P01M09".
	MilestoneKey string

	// Title is the milestone title.
	Title string

	// CriteriaList is the acceptance criteria, one "- text" line each.
	CriteriaList string

	// Criterion is a single acceptance criterion (verify capability).
	Criterion string

	// Domain is the reviewer specialization (review capability).
	Domain string

	// Changeset is the rendered full changeset (review capability).
	Changeset string

	// Issues is the rendered reviewer findings (fix capability).
	Issues string

	// MilestoneText is the full milestone section text (classify capability).
	MilestoneText string

	// PhaseContext is surrounding phase text for the classifier.
	PhaseContext string
}
