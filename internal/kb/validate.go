package kb

import (
	"fmt"

	"pakar/internal/engine"
)

// Symptom selection bounds for a single diagnosis run.
const (
	MinSymptoms = 1
	MaxSymptoms = 15
)

// ValidateSymptoms checks a caller-supplied symptom list: count bounds,
// atom format, no duplicates. The engine itself never validates input;
// this runs at the boundary before a session starts.
func ValidateSymptoms(symptoms []engine.Fact) error {
	if len(symptoms) < MinSymptoms {
		return fmt.Errorf("kb: at least %d symptom required", MinSymptoms)
	}
	if len(symptoms) > MaxSymptoms {
		return fmt.Errorf("kb: at most %d symptoms allowed, got %d", MaxSymptoms, len(symptoms))
	}
	seen := make(map[engine.Fact]struct{}, len(symptoms))
	for _, s := range symptoms {
		if !atomPattern.MatchString(string(s)) {
			return fmt.Errorf("kb: symptom %q: must be lowercase letters, digits, underscores", s)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("kb: duplicate symptom %q", s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// ValidateUserCertainty checks a user-supplied certainty value.
func ValidateUserCertainty(cf float64) error {
	if cf < 0 || cf > 1 {
		return fmt.Errorf("kb: user certainty %v outside [0, 1]", cf)
	}
	return nil
}
