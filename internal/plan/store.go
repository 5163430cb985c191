package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Store reads the milestone plan from a directory of phase files and applies
// the two mutations the orchestrator needs: checking acceptance criteria and
// transitioning milestone status. Both mutations are scoped strictly to the
// addressed milestone's section and use a write-to-temp-then-rename
// discipline, so a crash mid-write never leaves a half-written plan file and
// concurrent readers (the status reporter) always see a consistent file.
type Store struct {
	planDir string
}

// NewStore creates a [Store] rooted at the given plan directory.
func NewStore(planDir string) *Store {
	return &Store{planDir: planDir}
}

// PlanDir returns the plan directory the store reads from.
func (s *Store) PlanDir() string {
	return s.planDir
}

// PhaseFilePath returns the path of the plan file backing the given phase
// number, whether or not it exists.
func (s *Store) PhaseFilePath(phase int) string {
	return filepath.Join(s.planDir, fmt.Sprintf("phase-%02d.md", phase))
}

// LoadGraph parses every phase file in the plan directory and returns the
// full [Graph], phases sorted ascending by number.
//
// Returns [ErrNotFound] if the plan directory does not exist or holds no
// phase files, and [ErrMalformedState] (wrapped with file and line) when a
// file fails structural validation.
func (s *Store) LoadGraph() (Graph, error) {
	entries, err := os.ReadDir(s.planDir)
	if err != nil {
		return Graph{}, fmt.Errorf("plan directory %s: %w", s.planDir, ErrNotFound)
	}

	var phases []Phase
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := phaseFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil || number < 1 {
			continue
		}

		phase, err := s.loadPhase(number)
		if err != nil {
			return Graph{}, err
		}
		phases = append(phases, phase)
	}

	if len(phases) == 0 {
		return Graph{}, fmt.Errorf("no phase files in %s: %w", s.planDir, ErrNotFound)
	}

	sort.Slice(phases, func(i, j int) bool {
		return phases[i].Number < phases[j].Number
	})

	return Graph{Phases: phases}, nil
}

// loadPhase parses a single phase file into a [Phase].
func (s *Store) loadPhase(number int) (Phase, error) {
	path := s.PhaseFilePath(number)

	data, err := os.ReadFile(path)
	if err != nil {
		return Phase{}, fmt.Errorf("phase file %s: %w", path, ErrNotFound)
	}

	lines := splitLines(string(data))
	sections, err := parseSections(path, lines)
	if err != nil {
		return Phase{}, err
	}

	phase := Phase{Number: number, FilePath: path}
	for _, sec := range sections {
		if sec.key.Phase != number {
			return Phase{}, fmt.Errorf("%s: milestone %s does not belong to phase %d: %w",
				path, sec.key, number, ErrMalformedState)
		}
		phase.Milestones = append(phase.Milestones, Milestone{
			Key:      sec.key,
			Title:    sec.title,
			Status:   sec.status,
			Criteria: parseCriteria(lines, sec),
		})
	}

	return phase, nil
}

// FindMilestone loads the milestone addressed by key.
//
// Returns [ErrNotFound] when the phase file or the milestone section is
// missing.
func (s *Store) FindMilestone(key MilestoneKey) (Milestone, error) {
	phase, err := s.loadPhase(key.Phase)
	if err != nil {
		return Milestone{}, err
	}
	m, ok := phase.Milestone(key.Milestone)
	if !ok {
		return Milestone{}, fmt.Errorf("milestone %s in %s: %w", key, phase.FilePath, ErrNotFound)
	}
	return m, nil
}

// MarkCriteriaComplete checks every acceptance criterion of the addressed
// milestone. Criteria already checked are left alone; re-running on a fully
// checked milestone is a no-op that still succeeds. Sibling milestones'
// checkboxes are never touched.
func (s *Store) MarkCriteriaComplete(key MilestoneKey) error {
	return s.mutate(key, func(lines []string, sec section) error {
		checkAllCriteria(lines, sec)
		return nil
	})
}

// SetStatus transitions the addressed milestone to newStatus.
//
// Setting a status the milestone already holds returns [ErrAlreadyInState]
// without rewriting the file; callers treat this as a warning, not a failure.
func (s *Store) SetStatus(key MilestoneKey, newStatus Status) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("invalid status %d: %w", int(newStatus), ErrMalformedState)
	}
	return s.mutate(key, func(lines []string, sec section) error {
		if sec.status == newStatus {
			return fmt.Errorf("milestone %s is already %s: %w", key, newStatus, ErrAlreadyInState)
		}
		setStatusMarker(lines, sec, newStatus)
		return nil
	})
}

// mutate loads the phase file for key, locates the milestone's section, lets
// edit rewrite the section's lines in place, and writes the file back
// atomically. The edit callback may return [ErrAlreadyInState] to skip the
// write entirely.
func (s *Store) mutate(key MilestoneKey, edit func(lines []string, sec section) error) error {
	path := s.PhaseFilePath(key.Phase)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("phase file %s: %w", path, ErrNotFound)
	}

	lines := splitLines(string(data))
	sections, err := parseSections(path, lines)
	if err != nil {
		return err
	}

	var target *section
	for i := range sections {
		if sections[i].key == key {
			target = &sections[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("milestone %s in %s: %w", key, path, ErrNotFound)
	}

	if err := edit(lines, *target); err != nil {
		return err
	}

	return writeFileAtomic(path, []byte(joinLines(lines)))
}

// writeFileAtomic writes data to path via a temp file and rename, so readers
// never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
