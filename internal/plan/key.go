package plan

import (
	"fmt"
	"regexp"
	"strconv"
)

// MilestoneKey identifies a milestone by its phase and sequence number.
//
// Keys render as zero-padded tokens such as "P01M09". Milestone numbers are
// contiguous within a phase starting at 1; the locator relies on this to
// compute the next candidate as last+1.
type MilestoneKey struct {
	// Phase is the 1-based phase number.
	Phase int

	// Milestone is the 1-based milestone number within the phase.
	Milestone int
}

// keyPattern matches a rendered milestone token, e.g. "P01M09" or "P1M12".
var keyPattern = regexp.MustCompile(`^P(\d{1,3})M(\d{1,3})$`)

// String renders the key as a zero-padded token.
func (k MilestoneKey) String() string {
	return fmt.Sprintf("P%02dM%02d", k.Phase, k.Milestone)
}

// IsZero reports whether the key is the zero value (no milestone).
func (k MilestoneKey) IsZero() bool {
	return k.Phase == 0 && k.Milestone == 0
}

// Next returns the key of the next milestone within the same phase.
func (k MilestoneKey) Next() MilestoneKey {
	return MilestoneKey{Phase: k.Phase, Milestone: k.Milestone + 1}
}

// NextPhase returns the key of the first milestone of the following phase.
func (k MilestoneKey) NextPhase() MilestoneKey {
	return MilestoneKey{Phase: k.Phase + 1, Milestone: 1}
}

// ParseKey parses a milestone token such as "P01M09" into a [MilestoneKey].
//
// Returns [ErrMalformedState] wrapped with the offending token if the token
// does not match the PnnMnn format or encodes a number below 1.
func ParseKey(token string) (MilestoneKey, error) {
	m := keyPattern.FindStringSubmatch(token)
	if m == nil {
		return MilestoneKey{}, fmt.Errorf("invalid milestone key %q: %w", token, ErrMalformedState)
	}

	phase, err := strconv.Atoi(m[1])
	if err != nil {
		return MilestoneKey{}, fmt.Errorf("invalid milestone key %q: %w", token, ErrMalformedState)
	}
	num, err := strconv.Atoi(m[2])
	if err != nil {
		return MilestoneKey{}, fmt.Errorf("invalid milestone key %q: %w", token, ErrMalformedState)
	}

	if phase < 1 || num < 1 {
		return MilestoneKey{}, fmt.Errorf("invalid milestone key %q: numbers start at 1: %w", token, ErrMalformedState)
	}

	return MilestoneKey{Phase: phase, Milestone: num}, nil
}
