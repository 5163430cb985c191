package engine

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"milepost/internal/claude"
	"milepost/internal/config"
	"milepost/internal/output"
)

// ClaudeEngine implements every collaborator capability on top of the Claude
// CLI transport: one prompt template per capability, expanded with
// [config.PromptData] and executed through a [claude.Executor].
//
// ClaudeEngine satisfies [Implementer], [Reviewer], [Verifier], [Classifier],
// and [Fixer].
type ClaudeEngine struct {
	executor claude.Executor
	cfg      *config.Config
	printer  *output.Printer

	// stream controls whether Claude events are rendered live. Reviewer
	// calls run concurrently, so their streams stay quiet to keep output
	// readable.
	stream bool
}

// NewClaudeEngine creates a [ClaudeEngine].
func NewClaudeEngine(executor claude.Executor, cfg *config.Config, printer *output.Printer) *ClaudeEngine {
	return &ClaudeEngine{
		executor: executor,
		cfg:      cfg,
		printer:  printer,
		stream:   true,
	}
}

// prompt renders the named capability's template with data.
func (e *ClaudeEngine) prompt(name string, data config.PromptData) (claude.Request, error) {
	pc, ok := e.cfg.Prompts[name]
	if !ok || pc.Template == "" {
		return claude.Request{}, fmt.Errorf("no prompt template for capability %q", name)
	}

	tmpl, err := template.New(name).Parse(pc.Template)
	if err != nil {
		return claude.Request{}, fmt.Errorf("invalid %s template: %w", name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return claude.Request{}, fmt.Errorf("failed to expand %s template: %w", name, err)
	}

	model := pc.Model
	if model == "" {
		model = e.cfg.Claude.Model
	}
	return claude.Request{Prompt: b.String(), Model: model}, nil
}

// execute runs a rendered request, optionally streaming events to the
// printer, and fails on non-zero exit or an error-flagged result.
func (e *ClaudeEngine) execute(ctx context.Context, name string, req claude.Request, quiet bool) (string, error) {
	var handler claude.EventHandler
	if e.stream && !quiet && e.printer != nil {
		handler = e.printer.Event
	}

	res, err := e.executor.Execute(ctx, req, handler)
	if err != nil {
		return "", fmt.Errorf("%s capability failed: %w", name, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s capability exited with code %d", name, res.ExitCode)
	}
	if res.IsError {
		return "", fmt.Errorf("%s capability reported an error: %s", name, firstLine(res.FinalText))
	}
	return res.FinalText, nil
}

// Implement delegates the milestone's implementation to Claude and returns
// no changeset of its own: the driver snapshots the working tree afterwards
// through its [Snapshotter], so the changeset reflects what actually landed
// on disk rather than what the session claims.
func (e *ClaudeEngine) Implement(ctx context.Context, milestoneKey, title string, criteria []string) (Changeset, error) {
	var list strings.Builder
	for _, c := range criteria {
		list.WriteString("- " + c + "\n")
	}

	req, err := e.prompt(config.PromptImplement, config.PromptData{
		MilestoneKey: milestoneKey,
		Title:        title,
		CriteriaList: list.String(),
	})
	if err != nil {
		return Changeset{}, err
	}

	if _, err := e.execute(ctx, config.PromptImplement, req, false); err != nil {
		return Changeset{}, err
	}
	return Changeset{}, nil
}

// Review asks the domain's reviewer for findings over the full changeset.
func (e *ClaudeEngine) Review(ctx context.Context, domain Domain, changeset Changeset) ([]Issue, error) {
	req, err := e.prompt(config.PromptReview, config.PromptData{
		Domain:    string(domain),
		Changeset: changeset.Render(),
	})
	if err != nil {
		return nil, err
	}

	text, err := e.execute(ctx, config.PromptReview, req, true)
	if err != nil {
		return nil, err
	}
	return ParseReviewFindings(domain, text)
}

// VerifyCriterion asks for independent evidence that one criterion holds.
func (e *ClaudeEngine) VerifyCriterion(ctx context.Context, milestoneKey, criterion string) (VerifyResult, error) {
	req, err := e.prompt(config.PromptVerify, config.PromptData{
		MilestoneKey: milestoneKey,
		Criterion:    criterion,
	})
	if err != nil {
		return VerifyResult{}, err
	}

	text, err := e.execute(ctx, config.PromptVerify, req, true)
	if err != nil {
		return VerifyResult{}, err
	}
	return ParseVerifyResult(text)
}

// ClassifyMilestone asks the continuation analyst for a PROCEED/HALT verdict
// on the next milestone.
func (e *ClaudeEngine) ClassifyMilestone(ctx context.Context, milestoneText, phaseContext string) (Decision, error) {
	req, err := e.prompt(config.PromptClassify, config.PromptData{
		MilestoneText: milestoneText,
		PhaseContext:  phaseContext,
	})
	if err != nil {
		return Decision{}, err
	}

	text, err := e.execute(ctx, config.PromptClassify, req, true)
	if err != nil {
		return Decision{}, err
	}
	return ParseDecision(text)
}

// ApplyFixes hands the reviewer findings back to Claude for fixing.
func (e *ClaudeEngine) ApplyFixes(ctx context.Context, milestoneKey string, issues []Issue) error {
	var list strings.Builder
	for _, issue := range issues {
		list.WriteString("- " + issue.String() + "\n")
	}

	req, err := e.prompt(config.PromptFix, config.PromptData{
		MilestoneKey: milestoneKey,
		Issues:       list.String(),
	})
	if err != nil {
		return err
	}

	_, err = e.execute(ctx, config.PromptFix, req, false)
	return err
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
