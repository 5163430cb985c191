package engine

import (
	"fmt"
	"strings"
)

// Response line tokens the capabilities are prompted to emit.
const (
	tokenApproved    = "APPROVED"
	tokenIssue       = "ISSUE:"
	tokenSatisfied   = "SATISFIED:"
	tokenUnsatisfied = "UNSATISFIED:"
	tokenDecision    = "DECISION:"
	tokenQuestion    = "QUESTION:"
)

// ParseReviewFindings extracts reviewer issues from a capability response.
//
// Lines of the form "ISSUE: <file>: <description>" become findings; a
// response whose only meaningful content is APPROVED yields none. A response
// with neither APPROVED nor any ISSUE line is ambiguous and treated as an
// error rather than an implicit approval.
func ParseReviewFindings(domain Domain, text string) ([]Issue, error) {
	var issues []Issue
	approved := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.EqualFold(line, tokenApproved):
			approved = true
		case strings.HasPrefix(line, tokenIssue):
			rest := strings.TrimSpace(strings.TrimPrefix(line, tokenIssue))
			if rest == "" {
				continue
			}
			issue := Issue{Domain: domain, Description: rest}
			// "<file>: <description>" when the reviewer named a file.
			if idx := strings.Index(rest, ": "); idx > 0 && !strings.ContainsAny(rest[:idx], " \t") {
				issue.File = rest[:idx]
				issue.Description = strings.TrimSpace(rest[idx+2:])
			}
			issues = append(issues, issue)
		}
	}

	if len(issues) == 0 && !approved {
		return nil, fmt.Errorf("%s reviewer returned neither APPROVED nor issues: %q", domain, firstLine(text))
	}
	return issues, nil
}

// ParseVerifyResult extracts a criterion verification verdict.
//
// The verifier is prompted to reply with exactly one line: "SATISFIED:
// <evidence>" or "UNSATISFIED: <reason>". Anything else is an error - a
// criterion is never marked checked on an ambiguous answer.
func ParseVerifyResult(text string) (VerifyResult, error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, tokenSatisfied) {
			return VerifyResult{
				Satisfied: true,
				Evidence:  strings.TrimSpace(strings.TrimPrefix(line, tokenSatisfied)),
			}, nil
		}
		if strings.HasPrefix(line, tokenUnsatisfied) {
			return VerifyResult{
				Satisfied: false,
				Evidence:  strings.TrimSpace(strings.TrimPrefix(line, tokenUnsatisfied)),
			}, nil
		}
	}
	return VerifyResult{}, fmt.Errorf("verifier returned no verdict: %q", firstLine(text))
}

// ParseDecision extracts the continuation analyst's verdict.
//
// The decision policy is conservative by construction: a missing or
// unparseable decision line resolves to HALT, never PROCEED, and a HALT with
// no QUESTION lines is a contract violation reported alongside the HALT.
func ParseDecision(text string) (Decision, error) {
	decision := Decision{}
	found := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, tokenDecision):
			verdict := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, tokenDecision)))
			switch verdict {
			case string(DecisionProceed):
				decision.Kind = DecisionProceed
				found = true
			case string(DecisionHalt):
				decision.Kind = DecisionHalt
				found = true
			}
		case strings.HasPrefix(line, tokenQuestion):
			q := strings.TrimSpace(strings.TrimPrefix(line, tokenQuestion))
			if q != "" {
				decision.Questions = append(decision.Questions, q)
			}
		}
	}

	if !found {
		// Ties and garbage resolve to HALT.
		return Decision{
			Kind:      DecisionHalt,
			Questions: []string{fmt.Sprintf("analyst returned no parseable decision: %q", firstLine(text))},
		}, nil
	}

	if decision.Kind == DecisionHalt && len(decision.Questions) == 0 {
		return Decision{}, fmt.Errorf("analyst halted without questions (contract violation): %q", firstLine(text))
	}

	return decision, nil
}
