package services

import (
	"planboard/internal/apperr"
)

// ValidateReorder checks that proposed is a permutation of current: same
// length, no duplicates, no unknown IDs, nothing missing. A valid proposal
// maps each ID to its index as the new dense position.
func ValidateReorder(current, proposed []string) error {
	if len(proposed) != len(current) {
		return apperr.Validation("reorder must include all %d items, got %d", len(current), len(proposed))
	}

	known := make(map[string]bool, len(current))
	for _, id := range current {
		known[id] = true
	}

	seen := make(map[string]bool, len(proposed))
	for _, id := range proposed {
		if !known[id] {
			return apperr.Validation("unknown item in reorder: %s", id)
		}
		if seen[id] {
			return apperr.Validation("duplicate item in reorder: %s", id)
		}
		seen[id] = true
	}

	// Same length, all known, no duplicates: nothing can be missing.
	return nil
}

// InsertPosition clamps a requested insert position into [0, n] where n is
// the current item count. Out-of-range requests append.
func InsertPosition(requested, count int) int {
	if requested < 0 || requested > count {
		return count
	}
	return requested
}
