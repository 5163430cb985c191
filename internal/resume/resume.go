// Package resume persists the in-flight milestone record, enabling crash
// recovery.
//
// Exactly one record exists at a time, stored as YAML at a well-known path
// inside the workspace. The record is created before any code mutation begins
// and updated when the milestone commits, so a crash anywhere in between
// leaves an in_progress record for the resume command to surface.
//
// All writes are atomic (temp + rename). A record found with status
// "complete" on load is stale: it is cleared, never acted upon.
package resume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultStatePath is the canonical location of the resume record relative
// to the workspace root.
const DefaultStatePath = ".milepost/resume-state.yaml"

// Record statuses.
const (
	// StateInProgress marks a milestone whose execution has started but not
	// committed.
	StateInProgress = "in_progress"

	// StateComplete marks a milestone that committed. A complete record is
	// stale on load and gets cleared.
	StateComplete = "complete"
)

// ErrMalformedState indicates the resume record failed structural
// validation. The record is cleared and reported, never silently trusted.
var ErrMalformedState = errors.New("malformed resume state")

// Record describes the in-flight milestone.
type Record struct {
	// Slug is a unique identifier for this execution attempt.
	Slug string `yaml:"slug"`

	// MilestoneKey is the rendered key token, e.g. "P01M09".
	MilestoneKey string `yaml:"milestone_key"`

	// PhaseNumber is the phase the milestone belongs to.
	PhaseNumber int `yaml:"phase_number"`

	// PhaseFilePath is the plan file backing the milestone's phase.
	PhaseFilePath string `yaml:"phase_file_path"`

	// Status is in_progress or complete.
	Status string `yaml:"status"`

	// StartedAt is when execution began.
	StartedAt time.Time `yaml:"started_at"`

	// CompletedAt is when the milestone committed. Zero while in progress.
	CompletedAt time.Time `yaml:"completed_at,omitempty"`
}

// validate checks the structural invariants of a loaded record.
func (r *Record) validate() error {
	if r.MilestoneKey == "" {
		return fmt.Errorf("resume record missing milestone_key: %w", ErrMalformedState)
	}
	if r.Status != StateInProgress && r.Status != StateComplete {
		return fmt.Errorf("resume record has unknown status %q: %w", r.Status, ErrMalformedState)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("resume record missing started_at: %w", ErrMalformedState)
	}
	return nil
}

// Manager owns the resume record file. Only the orchestrator process reads
// or writes it, and only through this type.
type Manager struct {
	statePath string

	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a [Manager] for the given state file path.
func NewManager(statePath string) *Manager {
	return &Manager{
		statePath: statePath,
		now:       time.Now,
	}
}

// StatePath returns the path of the resume record file.
func (m *Manager) StatePath() string {
	return m.statePath
}

// Create persists a fresh in_progress record for the given milestone,
// superseding any previous record. Called before implementation begins so a
// crash after this point is recoverable.
func (m *Manager) Create(milestoneKey string, phaseNumber int, phaseFilePath string) (*Record, error) {
	rec := &Record{
		Slug:          uuid.NewString(),
		MilestoneKey:  milestoneKey,
		PhaseNumber:   phaseNumber,
		PhaseFilePath: phaseFilePath,
		Status:        StateInProgress,
		StartedAt:     m.now().UTC(),
	}
	if err := m.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Complete transitions the current record to complete and stamps
// completed_at. Returns an error if no record exists or the record on disk
// names a different milestone.
func (m *Manager) Complete(milestoneKey string) error {
	rec, err := m.Load()
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no resume state to complete for %s", milestoneKey)
	}
	if rec.MilestoneKey != milestoneKey {
		return fmt.Errorf("resume state names %s, not %s: %w", rec.MilestoneKey, milestoneKey, ErrMalformedState)
	}

	rec.Status = StateComplete
	rec.CompletedAt = m.now().UTC()
	return m.write(rec)
}

// Load reads the persisted record. Returns (nil, nil) when no record exists.
//
// A record that fails structural validation is cleared from disk and the
// validation error returned, so a corrupt file never wedges the orchestrator.
func (m *Manager) Load() (*Record, error) {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read resume state: %w", err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		m.Clear()
		return nil, fmt.Errorf("failed to parse resume state (cleared): %w", ErrMalformedState)
	}
	if err := rec.validate(); err != nil {
		m.Clear()
		return nil, fmt.Errorf("%w (cleared)", err)
	}

	return &rec, nil
}

// Clear removes the record file. Clearing an absent record is a no-op.
func (m *Manager) Clear() error {
	if err := os.Remove(m.statePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear resume state: %w", err)
	}
	return nil
}

// write persists the record atomically, creating the parent directory as
// needed.
func (m *Manager) write(rec *Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal resume state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.statePath), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmpPath := m.statePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write resume state: %w", err)
	}
	if err := os.Rename(tmpPath, m.statePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write resume state: %w", err)
	}
	return nil
}
