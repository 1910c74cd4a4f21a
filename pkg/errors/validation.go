package errors

import (
	"math"
	"unicode"
)

// maxNodeIDLength bounds message identifiers accepted from external input.
const maxNodeIDLength = 256

// ValidateNodeID validates a message identifier supplied by an external
// collaborator (transcript files, HTTP requests).
//
// The rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 256 bytes
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node ID cannot be empty")
	}

	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "node ID too long (max %d characters)", maxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node ID contains invalid control characters")
		}
	}

	return nil
}

// ValidatePosition rejects scrub positions that cannot be clamped: NaN and
// infinities. Finite out-of-range values are accepted; the timeline clamps
// them into [0, 1].
func ValidatePosition(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return New(ErrCodeInvalidPosition, "position must be a finite number, got %v", p)
	}
	return nil
}
