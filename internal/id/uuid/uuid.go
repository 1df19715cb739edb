// Package uuid mints run identifiers that correlate logs, metrics and
// snapshot notifications of one harvest.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// NewRunID returns a time-ordered UUIDv7 string, so run IDs sort by start time.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}

// MustRunID is NewRunID for callers with no error path; it falls back to a v4 ID.
func MustRunID() string {
	id, err := NewRunID()
	if err != nil {
		return uuid.NewString()
	}
	return id
}

// Short returns the first block of a run ID for human-facing output.
func Short(runID string) string {
	if len(runID) < 8 {
		return runID
	}
	return runID[:8]
}
